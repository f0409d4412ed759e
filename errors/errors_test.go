package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidityErrorMatchesByCode(t *testing.T) {
	err := fmt.Errorf("check nonce: %w", NewInvalidf(ErrCodeStale, "nonce %d < %d", 1, 2))

	assert.True(t, stderrors.Is(err, ErrStale))
	assert.False(t, stderrors.Is(err, ErrFuture))

	v, ok := AsValidity(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalid, v.Kind)
	assert.Equal(t, "nonce 1 < 2", v.Message)
}

func TestValidityErrorRendersJSON(t *testing.T) {
	err := NewInvalid(ErrCodePayment, ErrMsgPayment)
	assert.JSONEq(t, `{"kind":"invalid","code":"payment","message":"Not enough balance to pay the transaction fee"}`, err.Error())
}

func TestDispatchErrorIsNotValidity(t *testing.T) {
	err := NewDispatch(ErrCodeOverflow, "balance overflow")

	_, isValidity := AsValidity(err)
	assert.False(t, isValidity)
	assert.True(t, stderrors.Is(err, ErrOverflow))

	d, ok := AsDispatch(fmt.Errorf("wrapped: %w", err))
	require.True(t, ok)
	assert.Equal(t, ErrCodeOverflow, d.Code)
}
