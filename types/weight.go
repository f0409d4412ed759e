package types

// Weight is the ref-time cost of dispatching a call, in picoseconds.
type Weight uint64

const (
	WeightRefTimePerSecond Weight = 1_000_000_000_000
	WeightRefTimePerMillis Weight = 1_000_000_000
)

// DispatchClass separates user transactions from privileged ones for block limits.
type DispatchClass uint8

const (
	DispatchNormal DispatchClass = iota
	DispatchOperational
	DispatchMandatory
)

func (c DispatchClass) String() string {
	switch c {
	case DispatchNormal:
		return "normal"
	case DispatchOperational:
		return "operational"
	case DispatchMandatory:
		return "mandatory"
	}
	return "unknown"
}

// DispatchInfo is known before dispatch.
type DispatchInfo struct {
	Weight  Weight
	Class   DispatchClass
	PaysFee bool
}

// PostDispatchInfo is reported by the executor after dispatch. A nil ActualWeight means
// the pre-dispatch weight stands.
type PostDispatchInfo struct {
	ActualWeight *Weight
	PaysFee      bool
}

// CalcActualWeight returns the weight to account for, never more than info.Weight.
func (p PostDispatchInfo) CalcActualWeight(info DispatchInfo) Weight {
	if p.ActualWeight != nil && *p.ActualWeight < info.Weight {
		return *p.ActualWeight
	}
	return info.Weight
}
