package types

// Era is the mortality of a signed transaction. A zero Period means immortal.
type Era struct {
	Period uint64 `json:"period"`
	Phase  uint64 `json:"phase"`
}

// ImmortalEra never expires; its birth block is genesis.
var ImmortalEra = Era{}

// MortalEra creates an era valid for roughly period blocks starting at current. The
// period is rounded up to a power of two and clamped to [4, 65536]; the phase is
// quantized the same way as the signed-extension encoding so that it round-trips.
func MortalEra(period, current uint64) Era {
	p := uint64(4)
	for p < period && p < 65536 {
		p <<= 1
	}
	phase := current % p
	quantizeFactor := p >> 12
	if quantizeFactor < 1 {
		quantizeFactor = 1
	}
	quantizedPhase := phase / quantizeFactor * quantizeFactor
	return Era{Period: p, Phase: quantizedPhase}
}

func (e Era) IsImmortal() bool { return e.Period == 0 }

// Birth is the first block number at which the era is valid, relative to current.
func (e Era) Birth(current uint64) uint64 {
	if e.IsImmortal() {
		return 0
	}
	if current < e.Phase {
		return e.Phase
	}
	return (current-e.Phase)/e.Period*e.Period + e.Phase
}

// Death is the first block number at which the era is no longer valid.
func (e Era) Death(current uint64) uint64 {
	if e.IsImmortal() {
		return ^uint64(0)
	}
	return e.Birth(current) + e.Period
}
