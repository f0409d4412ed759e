package types

// EngineID tags a digest item with the consensus engine that produced it.
type EngineID [4]byte

var (
	AuraEngineID    = EngineID{'a', 'u', 'r', 'a'}
	GrandpaEngineID = EngineID{'F', 'R', 'N', 'K'}
)

func (e EngineID) String() string { return string(e[:]) }

// DigestKind mirrors the header digest item variants.
type DigestKind uint8

const (
	DigestOther      DigestKind = 0
	DigestConsensus  DigestKind = 4
	DigestSeal       DigestKind = 5
	DigestPreRuntime DigestKind = 6
)

// DigestItem is one (engine id, opaque bytes) entry of a block header digest.
type DigestItem struct {
	Kind     DigestKind
	EngineID EngineID
	Data     []byte
}

// PreRuntime builds a pre-runtime digest item.
func PreRuntime(engine EngineID, data []byte) DigestItem {
	return DigestItem{Kind: DigestPreRuntime, EngineID: engine, Data: data}
}
