package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"already exists", ErrAlreadyExists},
		{"not found", ErrNotFound},
		{"invalid credentials", ErrInvalidCredentials},
		{"insufficient balance", ErrInsufficientBalance},
		{"validation", ErrValidation},
		{"invalid state", ErrInvalidState},
		{"forbidden", ErrForbidden},
		{"duplicate bid", ErrDuplicateBid},
		{"gateway", ErrGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !stdErrors.Is(tc.err, tc.err) {
				t.Fatalf("expected error to match itself: %v", tc.err)
			}
		})
	}
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	validation := fmt.Errorf("create order: %w", Invalid("word_count", "must be positive"))
	if !stdErrors.Is(validation, ErrValidation) {
		t.Fatalf("expected validation sentinel, got %v", validation)
	}
	var ve *ValidationError
	if !stdErrors.As(validation, &ve) || ve.Field != "word_count" {
		t.Fatalf("expected field to survive wrapping, got %+v", ve)
	}

	state := &StateError{Op: "complete", Status: "pending"}
	if !stdErrors.Is(state, ErrInvalidState) {
		t.Fatalf("expected invalid state sentinel")
	}
	if state.Error() != `complete not allowed in status "pending"` {
		t.Fatalf("unexpected message %q", state.Error())
	}

	cause := stdErrors.New("card declined")
	gateway := &GatewayError{Op: "charge", Err: cause}
	if !stdErrors.Is(gateway, ErrGateway) || !stdErrors.Is(gateway, cause) {
		t.Fatalf("expected gateway error to match sentinel and cause")
	}
	if stdErrors.Is(gateway, ErrValidation) {
		t.Fatalf("gateway error must not match validation")
	}
}
