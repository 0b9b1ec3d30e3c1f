package runner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hwlab/quicktest/types"
)

// ErrNoActivePackage is returned when a package-scoped operation is called
// without an open package. This is a caller invariant violation and must not
// be silently ignored.
var ErrNoActivePackage = errors.New("no test package is running")

// VerdictError is the terminal fault surfaced from batch and package
// execution. It carries the escalated verdict (TESTNA, WARN or FAIL) and the
// summary lines accumulated by the scope that escalated.
type VerdictError struct {
	Verdict  types.Verdict
	Messages []string
}

func (e *VerdictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Verdict, strings.Join(e.Messages, "; "))
}

// NewVerdictError creates a new VerdictError with a copy of the messages.
func NewVerdictError(v types.Verdict, messages []string) *VerdictError {
	msgs := make([]string, len(messages))
	copy(msgs, messages)
	return &VerdictError{Verdict: v, Messages: msgs}
}

// IsVerdictError checks if the error is or wraps a VerdictError
func IsVerdictError(err error) bool {
	var verdictErr *VerdictError
	return err != nil && errors.As(err, &verdictErr)
}

// AsVerdictError returns the wrapped VerdictError, or nil.
func AsVerdictError(err error) *VerdictError {
	var verdictErr *VerdictError
	if errors.As(err, &verdictErr) {
		return verdictErr
	}
	return nil
}
