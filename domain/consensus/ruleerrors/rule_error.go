// Package ruleerrors defines the three error kinds the connect/replay/
// disconnect engine can raise: VerificationError for a consensus rule
// violation, StoreError for an underlying storage fault, and PrunedError
// when undo data needed for a reorg has already been erased.
// VerificationError and StoreError are built with github.com/pkg/errors so
// a caller can walk back to the sentinel or cause with errors.Cause while
// still getting a stack trace in logs; PrunedError is a plain value that
// carries no stack trace.
package ruleerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// VerificationError indicates a candidate block or transaction violates a
// named consensus rule. Callers compare against the ErrXxx sentinels below
// with errors.Is.
type VerificationError struct {
	name string
}

func (e *VerificationError) Error() string {
	return e.name
}

func newVerificationError(name string) error {
	return &VerificationError{name: name}
}

// Sentinel VerificationErrors, one per named consensus rule.
var (
	ErrCheckpointMismatch  = newVerificationError("ErrCheckpointMismatch")
	ErrMissingTransactions = newVerificationError("ErrMissingTransactions")
	ErrBIP30Duplicate      = newVerificationError("ErrBIP30Duplicate")
	ErrMissingOutput       = newVerificationError("ErrMissingOutput")
	ErrImmatureCoinbase    = newVerificationError("ErrImmatureCoinbase")
	ErrScript              = newVerificationError("ErrScript")
	ErrTooManySigOps       = newVerificationError("ErrTooManySigOps")
	ErrValueOutOfRange     = newVerificationError("ErrValueOutOfRange")
	ErrFeesOutOfRange      = newVerificationError("ErrFeesOutOfRange")
)

// Verification wraps one of the sentinels above with the offending
// transaction or outpoint so operators can see what failed, while keeping
// errors.Is/errors.Cause working against the sentinel.
func Verification(sentinel error, format string, args ...interface{}) error {
	return errors.Wrapf(sentinel, format, args...)
}

// StoreError wraps an opaque underlying storage fault (I/O, corruption).
// The engine never inspects the cause; it only ensures abort_batch runs
// before this is raised.
type StoreError struct {
	cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: %s", e.cause)
}

func (e *StoreError) Unwrap() error {
	return e.cause
}

func (e *StoreError) Cause() error {
	return e.cause
}

// NewStoreError wraps err together with a stack trace recorded at the call.
func NewStoreError(err error) error {
	return &StoreError{cause: errors.WithStack(err)}
}

// PrunedError indicates the undo data needed to replay or disconnect
// blockHash has already been pruned. Distinct from StoreError so the
// chain-selector can distinguish "cannot reorg this far back" from a
// genuine storage fault.
type PrunedError struct {
	BlockHash fmt.Stringer
}

func (e *PrunedError) Error() string {
	return fmt.Sprintf("undo data pruned for block %s", e.BlockHash)
}

// NewPrunedError constructs a PrunedError for blockHash.
func NewPrunedError(blockHash fmt.Stringer) error {
	return &PrunedError{BlockHash: blockHash}
}
