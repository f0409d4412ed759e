package types

import "github.com/holiman/uint256"

// Denominations of the native token. One GNF is 10^18 of the smallest unit, matching the
// 18 decimals advertised in the chain properties.
const (
	Wei       uint64 = 1
	KiloWei   uint64 = 1_000
	MegaWei   uint64 = 1_000_000
	GigaWei   uint64 = 1_000_000_000
	MicroStor uint64 = 1_000_000_000_000
	MilliStor uint64 = 1_000_000_000_000_000
	UnitGNF   uint64 = 1_000_000_000_000_000_000

	SupplyFactor uint64 = 100

	TokenDecimals = 18
	TokenSymbol   = "GNF"
)

// ExistentialDeposit is the minimum balance a newly created account must receive.
var ExistentialDeposit = uint256.NewInt(MicroStor)

// GNF returns n whole tokens in the smallest unit.
func GNF(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(UnitGNF))
}
