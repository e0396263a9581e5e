package scheduler

import (
	"errors"
	"fmt"

	"github.com/swifty-companion/student-api/pkg/core"
)

var (
	// ErrRetriesExhausted matches every RetriesExhaustedError.
	ErrRetriesExhausted = errors.New("scheduler: retries exhausted")
	// ErrClosed is returned for work submitted after Close.
	ErrClosed = errors.New("scheduler: closed")
)

// RetriesExhaustedError rejects a request whose failure count went past the
// retry ceiling. Err is the last failure.
type RetriesExhaustedError struct {
	Kind      Kind
	Parameter string
	Attempts  int
	Err       error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("scheduler: %s %q failed after %d attempts: %v", e.Kind, e.Parameter, e.Attempts, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Err
}

func (e *RetriesExhaustedError) Is(target error) bool {
	return target == ErrRetriesExhausted
}

// IsTransient reports a failure worth retrying later, as opposed to a lookup
// target that does not exist.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRetriesExhausted) || (core.IsNetworkError(err) && !core.IsNotFound(err))
}
