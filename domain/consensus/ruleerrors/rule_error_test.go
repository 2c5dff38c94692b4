package ruleerrors

import (
	"testing"

	"github.com/pkg/errors"
)

func TestVerificationWrapsSentinel(t *testing.T) {
	err := Verification(ErrImmatureCoinbase, "spent at depth %d", 3)
	if !errors.Is(err, ErrImmatureCoinbase) {
		t.Fatalf("expected errors.Is to find the wrapped sentinel")
	}
	if !errors.Is(err, ErrImmatureCoinbase) || errors.Is(err, ErrBIP30Duplicate) {
		t.Fatalf("expected the wrapped error to match only its own sentinel")
	}
}

func TestStoreErrorUnwraps(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStoreError(cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to walk a StoreError back to its cause")
	}
}

func TestPrunedErrorMessage(t *testing.T) {
	err := NewPrunedError(stringerFunc("deadbeef"))
	if err.Error() == "" {
		t.Fatalf("expected a non-empty error message")
	}
}

type stringerFunc string

func (s stringerFunc) String() string { return string(s) }
