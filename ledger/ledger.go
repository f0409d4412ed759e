package ledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/globalfoundation/gnf/authorship"
	"github.com/globalfoundation/gnf/block"
	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/db"
	"github.com/globalfoundation/gnf/dispatch"
	gnferrors "github.com/globalfoundation/gnf/errors"
	"github.com/globalfoundation/gnf/events"
	"github.com/globalfoundation/gnf/exception"
	"github.com/globalfoundation/gnf/fees"
	"github.com/globalfoundation/gnf/genesis"
	"github.com/globalfoundation/gnf/logx"
	"github.com/globalfoundation/gnf/monitoring"
	"github.com/globalfoundation/gnf/runtime"
	"github.com/globalfoundation/gnf/session"
	"github.com/globalfoundation/gnf/state"
	"github.com/globalfoundation/gnf/store"
	"github.com/globalfoundation/gnf/transaction"
	"github.com/globalfoundation/gnf/types"
	"github.com/holiman/uint256"
)

var (
	ErrNotInitialized    = errors.New("ledger has no genesis block")
	ErrGenesisMismatch   = errors.New("stored genesis differs from the supplied one")
	ErrUnexpectedNumber  = errors.New("block number does not follow head")
	ErrParentMismatch    = errors.New("block parent is not the head")
	ErrStateRootMismatch = errors.New("block state root mismatch")
)

// Config wires the per-component settings into the ledger.
type Config struct {
	Dispatch   dispatch.Config
	Session    session.Config
	Shares     fees.Shares
	AuthorMode authorship.Mode
}

func (c Config) Validate() error {
	if err := c.Dispatch.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	return c.Shares.Validate()
}

// Ledger owns the chain head and is the single writer of state. Blocks are applied one
// at a time under its mutex; each block is committed in one database batch or not at all.
type Ledger struct {
	mu         sync.RWMutex
	cfg        Config
	stores     *store.Stores
	verifier   dispatch.Verifier
	executor   dispatch.Executor
	dispatcher *dispatch.Dispatcher
	finder     authorship.Finder
	eventBus   *events.EventBus
	head       *block.Block
}

// NewLedger opens the ledger over stores. A nil executor runs the built-in runtime; a nil
// event bus disables event publishing.
func NewLedger(stores *store.Stores, cfg Config, verifier dispatch.Verifier, executor dispatch.Executor, eventBus *events.EventBus) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ledger config: %w", err)
	}
	finder, err := authorship.NewFinder(cfg.AuthorMode)
	if err != nil {
		return nil, err
	}
	if executor == nil {
		executor = runtime.NewExecutor(cfg.Session, nil, cfg.Dispatch.WeightPerGas)
	}
	l := &Ledger{
		cfg:      cfg,
		stores:   stores,
		verifier: verifier,
		executor: executor,
		finder:   finder,
		eventBus: eventBus,
	}
	if n, ok := stores.Blocks.LatestNumber(); ok {
		genesisBlock, err := stores.Blocks.Block(0)
		if err != nil {
			return nil, fmt.Errorf("load genesis block: %w", err)
		}
		head, err := stores.Blocks.Block(n)
		if err != nil {
			return nil, fmt.Errorf("load head block %d: %w", n, err)
		}
		l.setGenesis(genesisBlock.Hash())
		l.head = head
		logx.Info("LEDGER", fmt.Sprintf("opened at block %d (%s)", n, head.Hash()))
	}
	return l, nil
}

func (l *Ledger) setGenesis(hash common.Hash) {
	cfg := l.cfg.Dispatch
	cfg.GenesisHash = hash
	l.cfg.Dispatch = cfg
	l.dispatcher = dispatch.NewDispatcher(cfg, l.verifier, l.executor)
}

// InitGenesis writes block zero. Calling it again with the same genesis is a no-op.
func (l *Ledger) InitGenesis(g *genesis.State) (*block.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	root := g.Root()
	if l.head != nil {
		stored, err := l.stores.Blocks.Block(0)
		if err != nil {
			return nil, err
		}
		if stored.Header.StateRoot != root {
			return nil, ErrGenesisMismatch
		}
		return stored, nil
	}

	b := &block.Block{Header: block.Header{
		Number:         0,
		StateRoot:      root,
		ExtrinsicsRoot: block.ExtrinsicsRoot(nil),
	}}
	hash := b.Hash()

	overlay := state.NewOverlay(nil)
	for _, c := range g.Changes() {
		overlay.Put(c.Key, c.Value)
	}
	if err := state.NewView(overlay).SetBlockHash(0, hash); err != nil {
		return nil, err
	}
	if err := l.commit(b, overlay.Changes(), nil, root); err != nil {
		return nil, fmt.Errorf("commit genesis: %w", err)
	}
	l.setGenesis(hash)
	l.head = b
	logx.Info("LEDGER", fmt.Sprintf("genesis initialized: hash=%s state_root=%s", hash, root))
	return b, nil
}

// execution is the uncommitted result of running a block's extrinsics.
type execution struct {
	overlay    *state.Overlay
	included   [][]byte
	extrinsics []*transaction.Extrinsic
	outcomes   []dispatch.ApplyOutcome
	settlement fees.Outcome
	stateRoot  common.Hash
}

// initializeBlock writes the per-block system values and runs session rotation.
func (l *Ledger) initializeBlock(view *state.View, number uint64, parent common.Hash) error {
	if err := view.SetBlockNumber(number); err != nil {
		return err
	}
	if err := view.SetBlockHash(number-1, parent); err != nil {
		return err
	}
	if err := view.SetParentHash(parent); err != nil {
		return err
	}
	view.ResetBlockCounters()
	if _, err := session.OnInitialize(l.cfg.Session, view, number); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	return nil
}

// execute runs raws on top of the head. With strict set every extrinsic must be valid
// and the first invalid one fails the block; otherwise invalid extrinsics are dropped.
func (l *Ledger) execute(number uint64, parent common.Hash, digests []types.DigestItem, raws [][]byte, strict bool) (*execution, error) {
	overlay := state.NewOverlay(l.stores.State)
	view := state.NewView(overlay)
	if err := l.initializeBlock(view, number, parent); err != nil {
		return nil, err
	}

	exec := &execution{overlay: overlay}
	pot := fees.NewPot()
	for i, raw := range raws {
		x, err := transaction.Decode(raw)
		if err != nil {
			if strict {
				return nil, fmt.Errorf("extrinsic %d: %w", i, err)
			}
			l.reject(raw, nil, err)
			continue
		}

		depth := overlay.Depth()
		var out dispatch.ApplyOutcome
		err = exception.Guard("apply extrinsic", func() error {
			var applyErr error
			out, applyErr = l.dispatcher.Apply(x, view, pot)
			return applyErr
		})
		for overlay.Depth() > depth {
			_ = overlay.Rollback()
		}
		if err != nil {
			if _, invalid := gnferrors.AsValidity(err); invalid && !strict {
				l.reject(raw, x, err)
				continue
			}
			return nil, fmt.Errorf("extrinsic %d: %w", i, err)
		}
		exec.included = append(exec.included, raw)
		exec.extrinsics = append(exec.extrinsics, x)
		exec.outcomes = append(exec.outcomes, out)
	}

	snap, err := authorship.LoadSnapshot(view)
	if err != nil {
		return nil, fmt.Errorf("load authority snapshot: %w", err)
	}
	author, resolved := l.finder.FindAuthor(digests, snap)
	settlement, err := fees.Settle(view, l.cfg.Shares, pot, author, resolved)
	if err != nil {
		return nil, fmt.Errorf("settle fees: %w", err)
	}
	exec.settlement = settlement

	prev, ok, err := l.stores.StateMeta.StateHash(number - 1)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no state hash for block %d", number-1)
	}
	exec.stateRoot = CombineStateHash(prev, ComputeStateDeltaHash(overlay.Changes()))
	return exec, nil
}

func (l *Ledger) reject(raw []byte, x *transaction.Extrinsic, err error) {
	hash := common.Keccak256Hash(raw).Hex()
	if x != nil {
		if h, herr := transaction.DedupHash(x); herr == nil {
			hash = h
		}
	}
	logx.Warn("LEDGER", fmt.Sprintf("dropping extrinsic %s: %v", hash, err))
	monitoring.RecordRejectedTx(dispatch.RejectReason(err))
	if l.eventBus != nil {
		l.eventBus.Publish(events.NewExtrinsicRejected(hash, err.Error()))
	}
}

// ApplyBlock imports a sealed block on top of the head. Any invalid extrinsic, or a state
// root that does not match the execution, rejects the whole block and nothing is written.
func (l *Ledger) ApplyBlock(b *block.Block) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.head == nil {
		return ErrNotInitialized
	}
	start := time.Now()
	n := b.Header.Number
	logx.Info("LEDGER", fmt.Sprintf("Applying block %d", n))

	if n != l.head.Header.Number+1 {
		return fmt.Errorf("%w: got %d, head is %d", ErrUnexpectedNumber, n, l.head.Header.Number)
	}
	if b.Header.ParentHash != l.head.Hash() {
		return ErrParentMismatch
	}
	if err := b.VerifyExtrinsicsRoot(); err != nil {
		return err
	}

	exec, err := l.execute(n, b.Header.ParentHash, b.Header.Digests, b.Extrinsics, true)
	if err != nil {
		return fmt.Errorf("block %d: %w", n, err)
	}
	if exec.stateRoot != b.Header.StateRoot {
		return fmt.Errorf("%w: header %s, computed %s", ErrStateRootMismatch, b.Header.StateRoot, exec.stateRoot)
	}
	if err := l.finish(b, exec); err != nil {
		return err
	}
	monitoring.RecordBlockApplyTime(time.Since(start))
	return nil
}

// BuildBlock authors the next block for slot from candidate extrinsics. Invalid candidates
// are left out. The sealed block is committed and returned.
func (l *Ledger) BuildBlock(slot uint64, raws [][]byte) (*block.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.head == nil {
		return nil, ErrNotInitialized
	}
	start := time.Now()
	n := l.head.Header.Number + 1
	parent := l.head.Hash()
	digests := []types.DigestItem{authorship.AuraPreDigest(slot)}

	exec, err := l.execute(n, parent, digests, raws, false)
	if err != nil {
		return nil, fmt.Errorf("build block %d: %w", n, err)
	}
	b := block.Assemble(n, parent, digests, exec.included)
	b.Header.StateRoot = exec.stateRoot
	if err := l.finish(b, exec); err != nil {
		return nil, err
	}
	monitoring.RecordBlockApplyTime(time.Since(start))
	return b, nil
}

// finish persists an executed block, moves the head and publishes its events.
func (l *Ledger) finish(b *block.Block, exec *execution) error {
	hash := b.Hash()
	metas := make([]*types.TransactionMeta, 0, len(exec.extrinsics))
	for i, x := range exec.extrinsics {
		meta, err := newTxMeta(x, exec.outcomes[i], b.Header.Number, hash, i)
		if err != nil {
			return err
		}
		metas = append(metas, meta)
	}

	if err := l.commit(b, exec.overlay.Changes(), metas, exec.stateRoot); err != nil {
		return fmt.Errorf("commit block %d: %w", b.Header.Number, err)
	}
	l.head = b

	s := exec.settlement
	monitoring.SetBlockHeight(b.Header.Number)
	monitoring.RecordExtrinsicsInBlock(len(exec.extrinsics))
	monitoring.RecordFeesSettled(s.Treasury, s.Author)
	if !s.AuthorResolved {
		monitoring.RecordAuthorMiss()
	}
	for _, meta := range metas {
		result := "success"
		if meta.Status == types.TxStatusFailed {
			result = "failed"
		}
		monitoring.RecordAppliedExtrinsic(meta.Kind, result)
	}
	logx.Info("LEDGER", fmt.Sprintf("Block %d applied: hash=%s extrinsics=%d treasury=%s author=%s resolved=%t",
		b.Header.Number, hash, len(exec.extrinsics), s.Treasury.Dec(), s.Author.Dec(), s.AuthorResolved))

	if l.eventBus != nil {
		for _, meta := range metas {
			l.eventBus.Publish(events.NewExtrinsicApplied(meta.TxHash, meta.BlockNumber, hash, meta.Index, meta.Error))
		}
		l.eventBus.Publish(events.NewBlockImported(b.Header.Number, hash, s.AuthorAddr, s.AuthorResolved, s.Treasury, s.Author))
	}
	return nil
}

func (l *Ledger) commit(b *block.Block, changes []state.Change, metas []*types.TransactionMeta, stateRoot common.Hash) error {
	err := l.stores.TxManager.WithBatch(func(batch db.DatabaseBatch) error {
		l.stores.State.WriteChanges(batch, changes)
		if err := l.stores.Blocks.StageBlock(batch, b); err != nil {
			return err
		}
		if len(metas) > 0 {
			if err := l.stores.TxMetas.StageBatch(batch, metas); err != nil {
				return err
			}
		}
		l.stores.StateMeta.StageStateHash(batch, b.Header.Number, stateRoot)
		return nil
	})
	if err != nil {
		return err
	}
	l.stores.Blocks.MarkStored(b)
	return nil
}

func newTxMeta(x *transaction.Extrinsic, out dispatch.ApplyOutcome, number uint64, blockHash common.Hash, index int) (*types.TransactionMeta, error) {
	txHash, err := transaction.DedupHash(x)
	if err != nil {
		return nil, err
	}
	meta := &types.TransactionMeta{
		TxHash:      txHash,
		BlockNumber: number,
		BlockHash:   blockHash.Hex(),
		Index:       index,
		Kind:        out.Kind.String(),
		Sender:      out.Sender.Hex(),
		Status:      types.TxStatusSuccess,
		Fee:         decOrZero(out.Fee.Base),
		Tip:         decOrZero(out.Fee.Tip),
	}
	if out.DispatchErr != nil {
		meta.Status = types.TxStatusFailed
		meta.Error = out.DispatchErr.Error()
	}
	return meta, nil
}

func decOrZero(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

// Head returns the latest committed block, or nil before genesis.
func (l *Ledger) Head() *block.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.head
}

// GenesisHash is the hash of block zero; native extrinsics must sign over it.
func (l *Ledger) GenesisHash() common.Hash {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg.Dispatch.GenesisHash
}

// view reads committed state. Writes to it are discarded.
func (l *Ledger) view() *state.View {
	return state.NewView(state.NewOverlay(l.stores.State))
}

// GetAccount returns the committed account at addr; unknown accounts are empty.
func (l *Ledger) GetAccount(addr common.Address) (*types.Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.view().Account(addr)
}

// Balance returns the committed balance of addr.
func (l *Ledger) Balance(addr common.Address) (*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.view().Balance(addr)
}

// ActiveValidators is the validator set of the current session.
func (l *Ledger) ActiveValidators() ([]common.Address, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.view().ActiveValidators()
}

// GetTxMeta returns the execution record of a transaction by its dedup hash, or nil.
func (l *Ledger) GetTxMeta(txHash string) (*types.TransactionMeta, error) {
	return l.stores.TxMetas.GetByHash(txHash)
}

// StateRoot is the chained state hash committed for block n.
func (l *Ledger) StateRoot(n uint64) (common.Hash, bool, error) {
	return l.stores.StateMeta.StateHash(n)
}
