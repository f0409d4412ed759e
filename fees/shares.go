package fees

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Shares are the percentage splits between treasury and block author.
type Shares struct {
	TreasuryBase uint64 `ini:"treasury_base"`
	AuthorBase   uint64 `ini:"author_base"`
	TreasuryTip  uint64 `ini:"treasury_tip"`
	AuthorTip    uint64 `ini:"author_tip"`
}

// DefaultShares routes 20% of fees and 30% of tips to the treasury, the rest to the author.
func DefaultShares() Shares {
	return Shares{TreasuryBase: 20, AuthorBase: 80, TreasuryTip: 30, AuthorTip: 70}
}

func (s Shares) Validate() error {
	if s.TreasuryBase+s.AuthorBase != 100 {
		return fmt.Errorf("base fee shares must sum to 100, got %d+%d", s.TreasuryBase, s.AuthorBase)
	}
	if s.TreasuryTip+s.AuthorTip != 100 {
		return fmt.Errorf("tip shares must sum to 100, got %d+%d", s.TreasuryTip, s.AuthorTip)
	}
	return nil
}

// Record is the fee collected from one extrinsic, or the sum over a block.
type Record struct {
	Base *uint256.Int
	Tip  *uint256.Int
}

// NewRecord copies base and tip; nil means zero.
func NewRecord(base, tip *uint256.Int) Record {
	return Record{Base: orZero(base), Tip: orZero(tip)}
}

func (r Record) Total() *uint256.Int {
	return new(uint256.Int).Add(orZero(r.Base), orZero(r.Tip))
}

func (r Record) IsZero() bool {
	return orZero(r.Base).IsZero() && orZero(r.Tip).IsZero()
}

// Split is a treasury/author division of a Record.
type Split struct {
	Treasury *uint256.Int
	Author   *uint256.Int
}

// Split divides r. Each part is rationed with the first share rounded down, so any
// remainder lands on the author side and treasury + author == base + tip.
func (s Shares) Split(r Record) Split {
	bt, ba := ration(orZero(r.Base), s.TreasuryBase, s.AuthorBase)
	tt, ta := ration(orZero(r.Tip), s.TreasuryTip, s.AuthorTip)
	return Split{
		Treasury: bt.Add(bt, tt),
		Author:   ba.Add(ba, ta),
	}
}

func ration(amount *uint256.Int, first, second uint64) (*uint256.Int, *uint256.Int) {
	total := first + second
	if total == 0 {
		return uint256.NewInt(0), new(uint256.Int).Set(amount)
	}
	// 512-bit intermediate, never overflows
	a, _ := new(uint256.Int).MulDivOverflow(amount, uint256.NewInt(first), uint256.NewInt(total))
	return a, new(uint256.Int).Sub(amount, a)
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(v)
}
