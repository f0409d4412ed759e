package genesis

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/globalfoundation/gnf/balances"
	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/config"
	"github.com/globalfoundation/gnf/state"
	"github.com/globalfoundation/gnf/types"
	"github.com/holiman/uint256"
)

// ErrMissingCode means no runtime code was supplied. Startup cannot continue without it.
var ErrMissingCode = errors.New("genesis: runtime code is missing")

const (
	// BaseFeePerGas is the EIP-1559 base fee at genesis, 1 gwei.
	BaseFeePerGas = types.GigaWei
	// feeMultiplierOne is the fixed-point 1.0 of the transaction payment fee multiplier.
	feeMultiplierOne = types.UnitGNF
)

// State is the initial storage produced from a profile.
type State struct {
	changes []state.Change
}

// Changes is the storage as a key-sorted write list.
func (s *State) Changes() []state.Change { return s.changes }

// Storage maps every storage key to its encoded value.
func (s *State) Storage() map[string][]byte {
	out := make(map[string][]byte, len(s.changes))
	for _, c := range s.changes {
		if c.Deleted {
			continue
		}
		out[string(c.Key)] = c.Value
	}
	return out
}

type storagePair struct {
	Key   []byte
	Value []byte
}

// Root commits to the whole storage: keccak256 of the RLP list of key-sorted pairs.
func (s *State) Root() common.Hash {
	pairs := make([]storagePair, 0, len(s.changes))
	for _, c := range s.changes {
		if !c.Deleted {
			pairs = append(pairs, storagePair{Key: c.Key, Value: c.Value})
		}
	}
	enc, err := rlp.EncodeToBytes(pairs)
	if err != nil {
		// byte slices always encode
		panic(err)
	}
	return common.Keccak256Hash(enc)
}

// Build assembles the initial state from profile. The result depends only on its inputs.
func Build(profile *config.Profile, code []byte) (*State, error) {
	if len(code) == 0 {
		return nil, ErrMissingCode
	}
	if profile == nil {
		return nil, fmt.Errorf("genesis: nil profile")
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("genesis: %w", err)
	}

	view := state.NewView(state.NewOverlay(nil))
	view.SetCode(code)

	steps := []struct {
		name string
		run  func(*state.View, *config.Profile) error
	}{
		{"system", buildSystem},
		{"balances", buildBalances},
		{"validator set", buildValidatorSet},
		{"session", buildSession},
		{"sudo", buildSudo},
		{"governance", buildGovernance},
		{"evm", buildBaseFee},
	}
	for _, step := range steps {
		if err := step.run(view, profile); err != nil {
			return nil, fmt.Errorf("genesis %s: %w", step.name, err)
		}
	}
	return &State{changes: view.Changes()}, nil
}

func buildSystem(view *state.View, _ *config.Profile) error {
	if err := view.SetBlockNumber(0); err != nil {
		return err
	}
	return view.PutUint64(state.KeyFeeMultiplier, feeMultiplierOne)
}

func buildBalances(view *state.View, p *config.Profile) error {
	if err := view.SetTotalIssuance(uint256.NewInt(0)); err != nil {
		return err
	}
	for _, e := range p.Endowed {
		if err := balances.Endow(view, e.Address, p.BalanceOf(e.Address)); err != nil {
			return fmt.Errorf("endow %s: %w", e.Address, err)
		}
	}
	return nil
}

func buildValidatorSet(view *state.View, p *config.Profile) error {
	validators := make([]common.Address, len(p.Authorities))
	for i, a := range p.Authorities {
		validators[i] = a.Address
	}
	return view.SetValidators(validators)
}

// buildSession registers each authority as its own session key owner. The authority
// lists stay empty until the first rotation at block 1.
func buildSession(view *state.View, p *config.Profile) error {
	for _, a := range p.Authorities {
		if err := view.SetSessionKeys(a.Address, a.Keys); err != nil {
			return err
		}
	}
	if err := view.SetSessionIndex(0); err != nil {
		return err
	}
	if err := view.SetActiveValidators(nil); err != nil {
		return err
	}
	if err := view.SetAuraAuthorities(nil); err != nil {
		return err
	}
	if err := view.SetGrandpaAuthorities(nil); err != nil {
		return err
	}
	return view.SetImOnlineKeys(nil)
}

func buildSudo(view *state.View, p *config.Profile) error {
	return view.SetSudoKey(p.Root)
}

// TechnicalCommittee is the first half (rounded up) of the endowed accounts, or all of
// them on a Live chain.
func TechnicalCommittee(p *config.Profile) []common.Address {
	endowed := p.EndowedAccounts()
	if p.ChainType == config.ChainLive {
		return endowed
	}
	return endowed[:(len(endowed)+1)/2]
}

func buildGovernance(view *state.View, p *config.Profile) error {
	if err := view.SetTechnicalCommittee(TechnicalCommittee(p)); err != nil {
		return err
	}
	if err := view.SetCouncil(nil); err != nil {
		return err
	}
	for _, key := range []string{
		state.KeyDemocracyRefs,
		state.KeyDemocracyProps,
		state.KeyDemocracyUnbake,
		state.KeyTreasuryProps,
	} {
		if err := view.PutUint64(key, 0); err != nil {
			return err
		}
	}
	approvals, err := rlp.EncodeToBytes([]uint32{})
	if err != nil {
		return err
	}
	view.Put([]byte(state.KeyTreasuryApprove), approvals)
	return nil
}

func buildBaseFee(view *state.View, _ *config.Profile) error {
	if err := view.SetBaseFeePerGas(uint256.NewInt(BaseFeePerGas)); err != nil {
		return err
	}
	return view.SetElasticity(0)
}
