package ruleerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrInvalidNonce indicates a transaction nonce below the sender's
	// account nonce, which includes resubmitting an already applied
	// transaction.
	ErrInvalidNonce = newRuleError("ErrInvalidNonce")

	// ErrLowFee indicates a replacement whose fee is not strictly greater
	// than the fee of the queued transaction it tries to replace.
	ErrLowFee = newRuleError("ErrLowFee")

	// ErrTooManyTxsBySender indicates the sender already has the maximum
	// number of queued transactions.
	ErrTooManyTxsBySender = newRuleError("ErrTooManyTxsBySender")

	// ErrFeatureDisabled indicates that a governance feature flag required
	// by the operation is off.
	ErrFeatureDisabled = newRuleError("ErrFeatureDisabled")

	// ErrDirectionDisabled indicates that the requested transfer-domain
	// direction is disabled.
	ErrDirectionDisabled = newRuleError("ErrDirectionDisabled")

	// ErrInvalidSrcFormat indicates a transfer source address whose format
	// is not allowed for the direction.
	ErrInvalidSrcFormat = newRuleError("ErrInvalidSrcFormat")

	// ErrInvalidDstFormat indicates a transfer destination address whose
	// format is not allowed for the direction.
	ErrInvalidDstFormat = newRuleError("ErrInvalidDstFormat")

	// ErrAuthFormatMismatch indicates that the ownership proof pairing the
	// two domain representations of a key is missing, not allowed, or does
	// not match.
	ErrAuthFormatMismatch = newRuleError("ErrAuthFormatMismatch")

	// ErrInsufficientFunds indicates that an account cannot cover a debit.
	ErrInsufficientFunds = newRuleError("ErrInsufficientFunds")

	// ErrPreActivation indicates an operation attempted before the height
	// of the fork that governs it.
	ErrPreActivation = newRuleError("ErrPreActivation")

	// ErrAmountMismatch indicates a transfer whose source and destination
	// amounts differ or cannot be represented in both domains.
	ErrAmountMismatch = newRuleError("ErrAmountMismatch")

	// ErrTokenDisabled indicates a transfer of a token class that is not
	// enabled for the direction.
	ErrTokenDisabled = newRuleError("ErrTokenDisabled")

	// ErrInvalidTransferDomain indicates a malformed transfer-domain message.
	ErrInvalidTransferDomain = newRuleError("ErrInvalidTransferDomain")

	// ErrOpReturnTooLarge indicates a payload above the governance limit.
	ErrOpReturnTooLarge = newRuleError("ErrOpReturnTooLarge")

	// ErrIntrinsicGas indicates a gas limit below the intrinsic gas of the
	// transaction.
	ErrIntrinsicGas = newRuleError("ErrIntrinsicGas")

	// ErrGasLimitExceeded indicates a gas limit above the block gas limit.
	ErrGasLimitExceeded = newRuleError("ErrGasLimitExceeded")

	// ErrFeeBelowBaseFee indicates a gas price below the protocol base fee.
	ErrFeeBelowBaseFee = newRuleError("ErrFeeBelowBaseFee")

	// ErrDuplicateTransaction indicates that the exact transaction is
	// already queued.
	ErrDuplicateTransaction = newRuleError("ErrDuplicateTransaction")

	// ErrUnknownAttribute indicates a governance key outside the schema.
	ErrUnknownAttribute = newRuleError("ErrUnknownAttribute")

	// ErrInvalidAttribute indicates a governance value that does not parse
	// for its key, or a write to a read-only key.
	ErrInvalidAttribute = newRuleError("ErrInvalidAttribute")

	// ErrRollbackInconsistent indicates that ledger, queue and fee state
	// disagree after a rollback.
	ErrRollbackInconsistent = newRuleError("ErrRollbackInconsistent")

	// ErrChainHalted indicates that block production stopped after a fatal
	// rollback failure.
	ErrChainHalted = newRuleError("ErrChainHalted")
)

// RuleError identifies a rule violation. It is used to indicate that
// processing of a transaction, transfer or block failed due to one of the
// validation rules. Use errors.Is against the values above to identify the
// class of a failure.
type RuleError struct {
	message string
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}

// Errorf annotates the given rule error with a formatted description and a
// stack trace. The result still satisfies errors.Is(result, ruleErr).
func Errorf(ruleErr RuleError, format string, args ...interface{}) error {
	return errors.Wrap(ruleErr, fmt.Sprintf(format, args...))
}
