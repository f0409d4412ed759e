package errors

import (
	"fmt"

	"github.com/globalfoundation/gnf/jsonx"
)

// DispatchErrorCode names why a valid call failed during application.
type DispatchErrorCode string

const (
	ErrCodeBadOrigin           DispatchErrorCode = "bad_origin"
	ErrCodeInsufficientBalance DispatchErrorCode = "insufficient_balance"
	ErrCodeOverflow            DispatchErrorCode = "overflow"
	ErrCodeExistentialDeposit  DispatchErrorCode = "existential_deposit"
	ErrCodeMissingAccount      DispatchErrorCode = "missing_account"
	ErrCodeEVMUnsupported      DispatchErrorCode = "evm_unsupported"
	ErrCodeTooManyAuthorities  DispatchErrorCode = "too_many_authorities"
	ErrCodeTooFewAuthorities   DispatchErrorCode = "too_few_authorities"
	ErrCodeDuplicateAuthority  DispatchErrorCode = "duplicate_authority"
	ErrCodeNoKeys              DispatchErrorCode = "no_keys"
)

// DispatchError is recorded in the block's execution record. Only the failed call's
// effects are rolled back; the fee and nonce stay charged.
type DispatchError struct {
	Code    DispatchErrorCode `json:"code"`
	Message string            `json:"message"`
}

// Error implements the error interface
func (e *DispatchError) Error() string {
	out, _ := jsonx.Marshal(DispatchError{
		Code:    e.Code,
		Message: e.Message,
	})
	return string(out)
}

func (e *DispatchError) Is(target error) bool {
	t, ok := target.(*DispatchError)
	return ok && t.Code == e.Code
}

// NewDispatch creates a DispatchError.
func NewDispatch(code DispatchErrorCode, format string, args ...interface{}) error {
	return &DispatchError{Code: code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrBadOrigin           = &DispatchError{Code: ErrCodeBadOrigin}
	ErrInsufficientBalance = &DispatchError{Code: ErrCodeInsufficientBalance}
	ErrOverflow            = &DispatchError{Code: ErrCodeOverflow}
	ErrExistentialDeposit  = &DispatchError{Code: ErrCodeExistentialDeposit}
	ErrMissingAccount      = &DispatchError{Code: ErrCodeMissingAccount}
	ErrEVMUnsupported      = &DispatchError{Code: ErrCodeEVMUnsupported}
	ErrTooManyAuthorities  = &DispatchError{Code: ErrCodeTooManyAuthorities}
	ErrTooFewAuthorities   = &DispatchError{Code: ErrCodeTooFewAuthorities}
	ErrDuplicateAuthority  = &DispatchError{Code: ErrCodeDuplicateAuthority}
	ErrNoKeys              = &DispatchError{Code: ErrCodeNoKeys}
)

// AsDispatch unwraps err into a DispatchError.
func AsDispatch(err error) (*DispatchError, bool) {
	for err != nil {
		if d, ok := err.(*DispatchError); ok {
			return d, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
