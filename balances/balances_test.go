package balances

import (
	"testing"

	"github.com/globalfoundation/gnf/common"
	"github.com/globalfoundation/gnf/errors"
	"github.com/globalfoundation/gnf/state"
	"github.com/globalfoundation/gnf/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alith     = common.MustParseAddress("0x2FBAC9dE90e988fB2014FC8Aa08cf452e5E5E515")
	baltathar = common.MustParseAddress("0xF3c25Ea246B52a901b47CDAE1ecD3039246Ab31d")
)

func newView(t *testing.T) *state.View {
	t.Helper()
	view := state.NewView(state.NewOverlay(nil))
	require.NoError(t, Endow(view, alith, types.GNF(10)))
	return view
}

func TestEndowTracksIssuance(t *testing.T) {
	view := newView(t)
	total, err := view.TotalIssuance()
	require.NoError(t, err)
	assert.Equal(t, types.GNF(10), total)
}

func TestTransferCreatesDestination(t *testing.T) {
	view := newView(t)
	require.NoError(t, Transfer(view, alith, baltathar, types.GNF(1), AllowDeath))

	b, err := view.Balance(baltathar)
	require.NoError(t, err)
	assert.Equal(t, types.GNF(1), b)
	a, err := view.Balance(alith)
	require.NoError(t, err)
	assert.Equal(t, types.GNF(9), a)
}

func TestTransferBelowExistentialDepositToNewAccount(t *testing.T) {
	view := newView(t)
	err := Transfer(view, alith, baltathar, uint256.NewInt(1), AllowDeath)
	assert.ErrorIs(t, err, errors.ErrExistentialDeposit)
}

func TestTransferInsufficientBalance(t *testing.T) {
	view := newView(t)
	err := Transfer(view, alith, baltathar, types.GNF(11), AllowDeath)
	assert.ErrorIs(t, err, errors.ErrInsufficientBalance)
}

func TestKeepAliveRefusesToReap(t *testing.T) {
	view := newView(t)
	err := Transfer(view, alith, baltathar, types.GNF(10), KeepAlive)
	assert.ErrorIs(t, err, errors.ErrExistentialDeposit)

	require.NoError(t, Transfer(view, alith, baltathar, types.GNF(10), AllowDeath))
	a, err := view.Balance(alith)
	require.NoError(t, err)
	assert.True(t, a.IsZero())
}

func TestWithdrawReapsDust(t *testing.T) {
	view := newView(t)
	dust := uint256.NewInt(types.MicroStor - 1)
	amount := new(uint256.Int).Sub(types.GNF(10), dust)
	require.NoError(t, Withdraw(view, alith, amount, AllowDeath))

	a, err := view.Balance(alith)
	require.NoError(t, err)
	assert.True(t, a.IsZero())
	total, err := view.TotalIssuance()
	require.NoError(t, err)
	assert.Equal(t, types.GNF(10).Sub(types.GNF(10), dust), total)
}

func TestDepositOverflow(t *testing.T) {
	view := newView(t)
	err := Deposit(view, alith, new(uint256.Int).SetAllOne())
	assert.ErrorIs(t, err, errors.ErrOverflow)
}
