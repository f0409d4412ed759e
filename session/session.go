package session

import (
	"fmt"

	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/logx"
	"github.com/globalfoundation/gnf/monitoring"
	"github.com/globalfoundation/gnf/state"
	"github.com/globalfoundation/gnf/types"
)

const (
	MillisecsPerBlock uint64 = 6000
	Minutes                  = 60_000 / MillisecsPerBlock
	Hours                    = Minutes * 60
)

// Config controls session rotation and the size of the authority set.
type Config struct {
	Period         uint64 `ini:"period"`
	Offset         uint64 `ini:"offset"`
	MaxAuthorities int    `ini:"max_authorities"`
	MinAuthorities int    `ini:"min_authorities"`
}

func DefaultConfig() Config {
	return Config{
		Period:         60 * Minutes,
		Offset:         0,
		MaxAuthorities: 32,
		MinAuthorities: 1,
	}
}

func (c Config) Validate() error {
	if c.Period == 0 {
		return fmt.Errorf("session period must be positive")
	}
	if c.MaxAuthorities <= 0 {
		return fmt.Errorf("max authorities must be positive, got %d", c.MaxAuthorities)
	}
	if c.MinAuthorities < 0 || c.MinAuthorities > c.MaxAuthorities {
		return fmt.Errorf("min authorities %d out of range 0..%d", c.MinAuthorities, c.MaxAuthorities)
	}
	return nil
}

// ShouldRotate reports whether a new session starts at block n. The first session starts
// at block 1 so that the authority lists left empty at genesis get filled.
func (c Config) ShouldRotate(n uint64) bool {
	if n == 1 {
		return true
	}
	return n >= c.Offset && (n-c.Offset)%c.Period == 0
}

// OnInitialize runs at the start of block n and rotates when a session boundary is hit.
func OnInitialize(cfg Config, view *state.View, n uint64) (bool, error) {
	if n == 0 || !cfg.ShouldRotate(n) {
		return false, nil
	}
	return Rotate(cfg, view)
}

// Rotate starts a new session: queued keys become current, and the validators that have
// keys form the new active set in validator-set order. If fewer than MinAuthorities would
// be active the previous session stays in force.
func Rotate(cfg Config, view *state.View) (bool, error) {
	validators, err := view.Validators()
	if err != nil {
		return false, err
	}
	for _, v := range validators {
		queued, ok, err := view.QueuedKeys(v)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}
		if err := view.SetSessionKeys(v, queued); err != nil {
			return false, err
		}
		view.ClearQueuedKeys(v)
	}

	var (
		active   []common.Address
		aura     []types.SessionKey
		grandpa  []types.SessionKey
		imOnline []types.SessionKey
	)
	for _, v := range validators {
		if len(active) == cfg.MaxAuthorities {
			break
		}
		keys, ok, err := view.SessionKeys(v)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}
		active = append(active, v)
		aura = append(aura, keys.Aura)
		grandpa = append(grandpa, keys.Grandpa)
		imOnline = append(imOnline, keys.ImOnline)
	}
	if len(active) < cfg.MinAuthorities {
		logx.Warn("SESSION", fmt.Sprintf("only %d validators have keys, keeping the current session", len(active)))
		return false, nil
	}

	if err := view.SetActiveValidators(active); err != nil {
		return false, err
	}
	if err := view.SetAuraAuthorities(aura); err != nil {
		return false, err
	}
	if err := view.SetGrandpaAuthorities(grandpa); err != nil {
		return false, err
	}
	if err := view.SetImOnlineKeys(imOnline); err != nil {
		return false, err
	}
	index, err := view.SessionIndex()
	if err != nil {
		return false, err
	}
	index++
	if err := view.SetSessionIndex(index); err != nil {
		return false, err
	}
	monitoring.SetSessionIndex(index)
	logx.Info("SESSION", fmt.Sprintf("session %d started with %d authorities", index, len(active)))
	return true, nil
}
