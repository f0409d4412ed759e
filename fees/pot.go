package fees

import (
	"errors"
	"sync"

	"github.com/holiman/uint256"
)

var ErrPotConsumed = errors.New("fee pot already settled")

// Pot accumulates the fee records of one block. It is drained exactly once.
type Pot struct {
	mu       sync.Mutex
	base     *uint256.Int
	tip      *uint256.Int
	consumed bool
}

func NewPot() *Pot {
	return &Pot{base: uint256.NewInt(0), tip: uint256.NewInt(0)}
}

// Add folds r into the pot.
func (p *Pot) Add(r Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.consumed {
		return ErrPotConsumed
	}
	p.base.Add(p.base, orZero(r.Base))
	p.tip.Add(p.tip, orZero(r.Tip))
	return nil
}

// Peek returns the current totals without draining.
func (p *Pot) Peek() Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	return NewRecord(p.base, p.tip)
}

// Take drains the pot. A second call fails.
func (p *Pot) Take() (Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.consumed {
		return Record{}, ErrPotConsumed
	}
	p.consumed = true
	return NewRecord(p.base, p.tip), nil
}
