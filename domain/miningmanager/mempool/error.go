// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/xvmnet/xvmd/domain/ruleerrors"
)

// RuleError identifies a rule violation. It is used to indicate that
// processing of a transaction failed due to one of the many validation
// rules. The caller can use type assertions to determine if a failure was
// specifically due to a rule violation and use the Err field to access the
// underlying error, which will be either a TxRuleError or a
// ruleerrors.RuleError.
type RuleError struct {
	Err error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.Err == nil {
		return "<nil>"
	}
	return e.Err.Error()
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.Err
}

// RejectCode represents a numeric value by which a remote peer indicates
// why a message was rejected.
type RejectCode uint8

// These constants define the various supported reject codes.
const (
	RejectMalformed       RejectCode = 0x01
	RejectInvalid         RejectCode = 0x10
	RejectObsolete        RejectCode = 0x11
	RejectDuplicate       RejectCode = 0x12
	RejectNonstandard     RejectCode = 0x40
	RejectInsufficientFee RejectCode = 0x42
	RejectNotActive       RejectCode = 0x45
	RejectSenderLimit     RejectCode = 0x46
	RejectPolicy          RejectCode = 0x47
)

// Map of reject codes back strings for pretty printing.
var rejectCodeStrings = map[RejectCode]string{
	RejectMalformed:       "REJECT_MALFORMED",
	RejectInvalid:         "REJECT_INVALID",
	RejectObsolete:        "REJECT_OBSOLETE",
	RejectDuplicate:       "REJECT_DUPLICATE",
	RejectNonstandard:     "REJECT_NONSTANDARD",
	RejectInsufficientFee: "REJECT_INSUFFICIENTFEE",
	RejectNotActive:       "REJECT_NOTACTIVE",
	RejectSenderLimit:     "REJECT_SENDERLIMIT",
	RejectPolicy:          "REJECT_POLICY",
}

// String returns the RejectCode in human-readable form.
func (code RejectCode) String() string {
	if s, ok := rejectCodeStrings[code]; ok {
		return s
	}

	return fmt.Sprintf("Unknown RejectCode (%d)", uint8(code))
}

// TxRuleError identifies a rule violation. It is used to indicate that
// processing of a transaction failed due to one of the many validation
// rules. The caller can use errors.Is against the ruleerrors values to
// ascertain the specific reason for the rule violation, and RejectCode to
// report it.
type TxRuleError struct {
	RejectCode  RejectCode // The code to send with reject messages
	Description string     // Human readable description of the issue
	Err         error      // The rule that was violated
}

// Error satisfies the error interface and prints human-readable errors.
func (e TxRuleError) Error() string {
	return e.Description
}

// Unwrap satisfies the errors.Unwrap interface
func (e TxRuleError) Unwrap() error {
	return e.Err
}

// transactionRuleError creates an underlying TxRuleError for the violated
// rule and returns a RuleError that encapsulates it. The reject code is
// derived from the rule.
func transactionRuleError(ruleErr ruleerrors.RuleError, format string, args ...interface{}) error {
	return wrapRuleError(ruleerrors.Errorf(ruleErr, format, args...))
}

// wrapRuleError encapsulates an error returned by another domain component.
// Errors which do not carry a rule are returned as is.
func wrapRuleError(err error) error {
	code, ok := extractRejectCode(err)
	if !ok {
		return err
	}
	return RuleError{
		Err: TxRuleError{RejectCode: code, Description: err.Error(), Err: err},
	}
}

// extractRejectCode attempts to return a relevant reject code for a given error
// by examining the error for known types. It will return true if a code
// was successfully extracted.
func extractRejectCode(err error) (RejectCode, bool) {
	var trErr TxRuleError
	if errors.As(err, &trErr) {
		return trErr.RejectCode, true
	}

	var ruleErr ruleerrors.RuleError
	if !errors.As(err, &ruleErr) {
		return RejectInvalid, false
	}

	var code RejectCode
	switch ruleErr {
	case ruleerrors.ErrDuplicateTransaction:
		code = RejectDuplicate

	case ruleerrors.ErrInvalidNonce:
		code = RejectObsolete

	case ruleerrors.ErrLowFee, ruleerrors.ErrFeeBelowBaseFee:
		code = RejectInsufficientFee

	case ruleerrors.ErrTooManyTxsBySender:
		code = RejectSenderLimit

	case ruleerrors.ErrPreActivation, ruleerrors.ErrFeatureDisabled:
		code = RejectNotActive

	case ruleerrors.ErrOpReturnTooLarge, ruleerrors.ErrIntrinsicGas, ruleerrors.ErrGasLimitExceeded:
		code = RejectNonstandard

	case ruleerrors.ErrDirectionDisabled, ruleerrors.ErrTokenDisabled, ruleerrors.ErrInvalidSrcFormat,
		ruleerrors.ErrInvalidDstFormat, ruleerrors.ErrAuthFormatMismatch:
		code = RejectPolicy

	case ruleerrors.ErrInvalidTransferDomain, ruleerrors.ErrAmountMismatch:
		code = RejectMalformed

	// Everything else is due to the transaction being invalid.
	default:
		code = RejectInvalid
	}

	return code, true
}
