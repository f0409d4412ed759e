package errors

import (
	"fmt"

	"github.com/globalfoundation/gnf/jsonx"
)

// ValidityKind separates transactions that can never become valid from those whose
// validity could not be determined.
type ValidityKind string

const (
	KindInvalid ValidityKind = "invalid"
	KindUnknown ValidityKind = "unknown"
)

// ValidityErrorCode names the check that rejected a transaction.
type ValidityErrorCode string

const (
	// Check chain
	ErrCodeStale             ValidityErrorCode = "stale"
	ErrCodeFuture            ValidityErrorCode = "future"
	ErrCodeBadProof          ValidityErrorCode = "bad_proof"
	ErrCodeBadSigner         ValidityErrorCode = "bad_signer"
	ErrCodeAncientBirthBlock ValidityErrorCode = "ancient_birth_block"
	ErrCodeExhaustsResources ValidityErrorCode = "exhausts_resources"
	ErrCodePayment           ValidityErrorCode = "payment"
	ErrCodeBadSpecVersion    ValidityErrorCode = "bad_spec_version"
	ErrCodeBadTxVersion      ValidityErrorCode = "bad_tx_version"
	ErrCodeBadGenesis        ValidityErrorCode = "bad_genesis"
	ErrCodeUnsigned          ValidityErrorCode = "unsigned"
	ErrCodeCallFiltered      ValidityErrorCode = "call_filtered"
	ErrCodeCannotLookup      ValidityErrorCode = "cannot_lookup"

	// Self-contained (EVM) path
	ErrCodeBadSignature    ValidityErrorCode = "bad_signature"
	ErrCodeInvalidChainID  ValidityErrorCode = "invalid_chain_id"
	ErrCodeGasLimitTooHigh ValidityErrorCode = "gas_limit_too_high"
	ErrCodeGasLimitTooLow  ValidityErrorCode = "gas_limit_too_low"
	ErrCodeGasPriceTooLow  ValidityErrorCode = "gas_price_too_low"
)

const (
	ErrMsgStale             = "Transaction nonce is too low"
	ErrMsgFuture            = "Transaction nonce is ahead of the account"
	ErrMsgBadProof          = "Transaction signature does not match its signer"
	ErrMsgBadSigner         = "Transaction signer is the zero address"
	ErrMsgAncientBirthBlock = "Transaction era has expired or is unknown"
	ErrMsgExhaustsResources = "Transaction would exhaust the block limits"
	ErrMsgPayment           = "Not enough balance to pay the transaction fee"
	ErrMsgBadSpecVersion    = "Transaction spec version does not match the runtime"
	ErrMsgBadTxVersion      = "Transaction version does not match the runtime"
	ErrMsgBadGenesis        = "Transaction genesis hash does not match the chain"
	ErrMsgUnsigned          = "Unsigned transactions are not accepted"
	ErrMsgCallFiltered      = "Call is not allowed on this chain"
	ErrMsgCannotLookup      = "Account could not be resolved"
	ErrMsgBadSignature      = "Ethereum transaction signature is malformed"
	ErrMsgInvalidChainID    = "Ethereum transaction chain id does not match"
	ErrMsgGasLimitTooHigh   = "Ethereum transaction gas limit exceeds the block gas limit"
	ErrMsgGasLimitTooLow    = "Ethereum transaction gas limit is below intrinsic gas"
	ErrMsgGasPriceTooLow    = "Ethereum transaction fee cap is below the base fee"
)

// ValidityError rejects a transaction before it mutates any state.
type ValidityError struct {
	Kind    ValidityKind      `json:"kind"`
	Code    ValidityErrorCode `json:"code"`
	Message string            `json:"message"`
}

// Error implements the error interface
func (e *ValidityError) Error() string {
	out, _ := jsonx.Marshal(ValidityError{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: e.Message,
	})
	return string(out)
}

// Is matches any ValidityError carrying the same kind and code, so sentinel-style
// comparisons work through wrapping.
func (e *ValidityError) Is(target error) bool {
	t, ok := target.(*ValidityError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Code == e.Code
}

// NewInvalid returns a ValidityError of kind invalid.
func NewInvalid(code ValidityErrorCode, message string) error {
	return &ValidityError{Kind: KindInvalid, Code: code, Message: message}
}

// NewInvalidf is NewInvalid with a formatted message.
func NewInvalidf(code ValidityErrorCode, format string, args ...interface{}) error {
	return NewInvalid(code, fmt.Sprintf(format, args...))
}

// NewUnknown returns a ValidityError of kind unknown.
func NewUnknown(code ValidityErrorCode, message string) error {
	return &ValidityError{Kind: KindUnknown, Code: code, Message: message}
}

// Sentinels for errors.Is checks.
var (
	ErrStale             = &ValidityError{Kind: KindInvalid, Code: ErrCodeStale}
	ErrFuture            = &ValidityError{Kind: KindInvalid, Code: ErrCodeFuture}
	ErrBadProof          = &ValidityError{Kind: KindInvalid, Code: ErrCodeBadProof}
	ErrBadSigner         = &ValidityError{Kind: KindInvalid, Code: ErrCodeBadSigner}
	ErrAncientBirthBlock = &ValidityError{Kind: KindInvalid, Code: ErrCodeAncientBirthBlock}
	ErrExhaustsResources = &ValidityError{Kind: KindInvalid, Code: ErrCodeExhaustsResources}
	ErrPayment           = &ValidityError{Kind: KindInvalid, Code: ErrCodePayment}
	ErrBadSpecVersion    = &ValidityError{Kind: KindInvalid, Code: ErrCodeBadSpecVersion}
	ErrBadTxVersion      = &ValidityError{Kind: KindInvalid, Code: ErrCodeBadTxVersion}
	ErrBadGenesis        = &ValidityError{Kind: KindInvalid, Code: ErrCodeBadGenesis}
	ErrUnsigned          = &ValidityError{Kind: KindInvalid, Code: ErrCodeUnsigned}
	ErrCallFiltered      = &ValidityError{Kind: KindInvalid, Code: ErrCodeCallFiltered}
	ErrCannotLookup      = &ValidityError{Kind: KindUnknown, Code: ErrCodeCannotLookup}
	ErrBadSignature      = &ValidityError{Kind: KindInvalid, Code: ErrCodeBadSignature}
	ErrInvalidChainID    = &ValidityError{Kind: KindInvalid, Code: ErrCodeInvalidChainID}
	ErrGasLimitTooHigh   = &ValidityError{Kind: KindInvalid, Code: ErrCodeGasLimitTooHigh}
	ErrGasLimitTooLow    = &ValidityError{Kind: KindInvalid, Code: ErrCodeGasLimitTooLow}
	ErrGasPriceTooLow    = &ValidityError{Kind: KindInvalid, Code: ErrCodeGasPriceTooLow}
)

// AsValidity unwraps err into a ValidityError.
func AsValidity(err error) (*ValidityError, bool) {
	for err != nil {
		if v, ok := err.(*ValidityError); ok {
			return v, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
