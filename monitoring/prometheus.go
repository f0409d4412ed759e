package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/globalfoundation/gnf/logx"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type nodePromMetrics struct {
	nodeUpUnixSeconds prometheus.Gauge
	rejectedTxCount   *prometheus.CounterVec
	appliedExtrinsics *prometheus.CounterVec
	blockHeight       prometheus.Gauge
	blockApplyTime    prometheus.Histogram
	extrinsicsInBlock prometheus.Histogram
	feesTreasury      prometheus.Counter
	feesAuthor        prometheus.Counter
	authorMissCount   prometheus.Counter
	sessionIndex      prometheus.Gauge
	panicCount        prometheus.Counter
}

func newNodePromMetrics() *nodePromMetrics {
	return &nodePromMetrics{
		nodeUpUnixSeconds: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "gnf_node_up_timestamp_unix_seconds",
				Help: "Unix timestamp of the node",
			},
		),
		rejectedTxCount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gnf_node_rejected_tx_count",
				Help: "Transactions rejected by a validity check, by error code",
			},
			[]string{"reason"},
		),
		appliedExtrinsics: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gnf_node_applied_extrinsic_count",
				Help: "Extrinsics applied in blocks, by kind and dispatch result",
			},
			[]string{"kind", "result"},
		),
		blockHeight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "gnf_node_block_height",
				Help: "The current block height",
			},
		),
		blockApplyTime: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name: "gnf_node_block_apply_seconds",
				Help: "Time spent executing a block",
			},
		),
		extrinsicsInBlock: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name: "gnf_node_extrinsics_in_block",
				Help: "Number of extrinsics in block",
			},
		),
		feesTreasury: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gnf_node_fees_treasury_total",
				Help: "Fees paid to the treasury, in the smallest unit",
			},
		),
		feesAuthor: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gnf_node_fees_author_total",
				Help: "Fees paid to block authors, in the smallest unit",
			},
		),
		authorMissCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gnf_node_author_miss_count",
				Help: "Blocks whose author could not be resolved",
			},
		),
		sessionIndex: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "gnf_node_session_index",
				Help: "The current session index",
			},
		),
		panicCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "gnf_node_panic_count",
				Help: "Recovered panics",
			},
		),
	}
}

var (
	nodeMetrics *nodePromMetrics
	initOnce    sync.Once
)

// InitMetrics registers the node metrics. Until it is called every recorder is a no-op.
func InitMetrics() {
	initOnce.Do(func() {
		nodeMetrics = newNodePromMetrics()
		nodeMetrics.nodeUpUnixSeconds.SetToCurrentTime()
	})
}

func RegisterMetrics(mux *http.ServeMux) {
	logx.Info("MONITORING", "Registering prometheus metrics")
	mux.Handle("/metrics", promhttp.Handler())
}

func RecordRejectedTx(reason string) {
	if nodeMetrics == nil {
		return
	}
	nodeMetrics.rejectedTxCount.With(prometheus.Labels{"reason": reason}).Inc()
}

func RecordAppliedExtrinsic(kind, result string) {
	if nodeMetrics == nil {
		return
	}
	nodeMetrics.appliedExtrinsics.With(prometheus.Labels{"kind": kind, "result": result}).Inc()
}

func SetBlockHeight(blockHeight uint64) {
	if nodeMetrics == nil {
		return
	}
	nodeMetrics.blockHeight.Set(float64(blockHeight))
}

func RecordBlockApplyTime(duration time.Duration) {
	if nodeMetrics == nil {
		return
	}
	nodeMetrics.blockApplyTime.Observe(duration.Seconds())
}

func RecordExtrinsicsInBlock(count int) {
	if nodeMetrics == nil {
		return
	}
	nodeMetrics.extrinsicsInBlock.Observe(float64(count))
}

func RecordFeesSettled(treasury, author *uint256.Int) {
	if nodeMetrics == nil {
		return
	}
	if treasury != nil {
		nodeMetrics.feesTreasury.Add(treasury.Float64())
	}
	if author != nil {
		nodeMetrics.feesAuthor.Add(author.Float64())
	}
}

func RecordAuthorMiss() {
	if nodeMetrics == nil {
		return
	}
	nodeMetrics.authorMissCount.Inc()
}

func SetSessionIndex(index uint64) {
	if nodeMetrics == nil {
		return
	}
	nodeMetrics.sessionIndex.Set(float64(index))
}

func IncreasePanicCount() {
	if nodeMetrics == nil {
		return
	}
	nodeMetrics.panicCount.Inc()
}
