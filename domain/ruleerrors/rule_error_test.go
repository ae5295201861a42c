package ruleerrors

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestErrorfKeepsRuleErrorClass(t *testing.T) {
	err := Errorf(ErrLowFee, "replacement fee %d is not above %d", 5, 5)
	if !errors.Is(err, ErrLowFee) {
		t.Fatalf("expected the error to match ErrLowFee: %v", err)
	}
	if errors.Is(err, ErrInvalidNonce) {
		t.Fatalf("the error unexpectedly matches ErrInvalidNonce")
	}
	var ruleErr RuleError
	if !errors.As(err, &ruleErr) || ruleErr != ErrLowFee {
		t.Fatalf("errors.As did not extract ErrLowFee from %v", err)
	}
	if !strings.HasPrefix(err.Error(), "replacement fee 5 is not above 5: ErrLowFee") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWrappedRuleErrorsStayIdentifiable(t *testing.T) {
	err := errors.Wrap(Errorf(ErrDirectionDisabled, "dvm-evm"), "transfer 1")
	if !errors.Is(err, ErrDirectionDisabled) {
		t.Fatalf("expected the error to match ErrDirectionDisabled: %v", err)
	}
}
