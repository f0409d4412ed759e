package authorship

import (
	"testing"

	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/state"
	"github.com/globalfoundation/gnf/types"
	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alith     = common.MustParseAddress("0x2FBAC9dE90e988fB2014FC8Aa08cf452e5E5E515")
	baltathar = common.MustParseAddress("0xF3c25Ea246B52a901b47CDAE1ecD3039246Ab31d")
)

func mustKey(t *testing.T, s string) types.SessionKey {
	t.Helper()
	k, err := types.ParseSessionKey(s)
	require.NoError(t, err)
	return k
}

func snapshot(t *testing.T) Snapshot {
	return Snapshot{
		Validators: []common.Address{alith, baltathar},
		Keys: map[common.Address]types.SessionKeys{
			alith:     {Aura: mustKey(t, "0x469af7baae9f43aa9eed5db7c13c25474d299093934dc0d112c31e26935d7f12")},
			baltathar: {Aura: mustKey(t, "0xc02ed3d8dae2da54d510700cd2aecea0abd8bf474c954762655528d86af13b06")},
		},
	}
}

func TestAuraSlotDecoding(t *testing.T) {
	slot, ok := AuraSlot([]types.DigestItem{AuraPreDigest(0x0102030405060708)})
	require.True(t, ok)
	assert.Equal(t, uint64(0x0102030405060708), slot)

	// other engines and kinds are skipped
	_, ok = AuraSlot([]types.DigestItem{
		types.PreRuntime(types.GrandpaEngineID, make([]byte, 8)),
		{Kind: types.DigestSeal, EngineID: types.AuraEngineID, Data: make([]byte, 8)},
	})
	assert.False(t, ok)

	_, ok = AuraSlot([]types.DigestItem{types.PreRuntime(types.AuraEngineID, []byte{1, 2, 3})})
	assert.False(t, ok)
}

func TestTruncatedKeyAuthor(t *testing.T) {
	snap := snapshot(t)

	// slot 3 over two validators is index 1
	got, ok := TruncatedKeyAuthor{}.FindAuthor([]types.DigestItem{AuraPreDigest(3)}, snap)
	require.True(t, ok)
	assert.Equal(t, common.MustParseAddress("0xdae2da54d510700cd2aecea0abd8bf474c954762"), got)

	got, ok = TruncatedKeyAuthor{}.FindAuthor([]types.DigestItem{AuraPreDigest(4)}, snap)
	require.True(t, ok)
	assert.Equal(t, common.MustParseAddress("0xae9f43aa9eed5db7c13c25474d299093934dc0d1"), got)
}

func TestAuthorMisses(t *testing.T) {
	snap := snapshot(t)
	finders := []Finder{TruncatedKeyAuthor{}, AccountAuthor{}}

	for _, f := range finders {
		_, ok := f.FindAuthor(nil, snap)
		assert.False(t, ok, "no digest")

		_, ok = f.FindAuthor([]types.DigestItem{AuraPreDigest(1)}, Snapshot{})
		assert.False(t, ok, "empty validator set")
	}

	// validator without registered keys
	noKeys := Snapshot{Validators: []common.Address{alith}, Keys: map[common.Address]types.SessionKeys{}}
	_, ok := TruncatedKeyAuthor{}.FindAuthor([]types.DigestItem{AuraPreDigest(0)}, noKeys)
	assert.False(t, ok)

	_, ok = snap.AuraKey(5)
	assert.False(t, ok)
}

func TestAccountAuthor(t *testing.T) {
	got, ok := AccountAuthor{}.FindAuthor([]types.DigestItem{AuraPreDigest(7)}, snapshot(t))
	require.True(t, ok)
	assert.Equal(t, baltathar, got)
}

func TestFindAuthorNeverPanicsOnFuzzedDigests(t *testing.T) {
	snap := snapshot(t)
	f := fuzz.New().NilChance(0.1).NumElements(0, 4)
	for i := 0; i < 500; i++ {
		var digests []types.DigestItem
		f.Fuzz(&digests)
		for _, finder := range []Finder{TruncatedKeyAuthor{}, AccountAuthor{}} {
			addr, ok := finder.FindAuthor(digests, snap)
			if !ok {
				assert.True(t, addr.IsZero())
			}
		}
	}
}

func TestLoadSnapshot(t *testing.T) {
	view := state.NewView(state.NewOverlay(nil))
	require.NoError(t, view.SetActiveValidators([]common.Address{alith, baltathar}))
	require.NoError(t, view.SetSessionKeys(alith, types.SessionKeys{Aura: types.SessionKey{9}}))

	snap, err := LoadSnapshot(view)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{alith, baltathar}, snap.Validators)
	assert.Len(t, snap.Keys, 1)
}

func TestNewFinder(t *testing.T) {
	f, err := NewFinder(ModeSessionKey)
	require.NoError(t, err)
	assert.IsType(t, TruncatedKeyAuthor{}, f)
	f, err = NewFinder(ModeAccount)
	require.NoError(t, err)
	assert.IsType(t, AccountAuthor{}, f)
	_, err = NewFinder("bogus")
	assert.Error(t, err)
}
