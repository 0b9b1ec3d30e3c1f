package types

import (
	"errors"
	"fmt"
)

// Verdict represents the outcome of a test, batch or package scope
type Verdict string

const (
	// VerdictNone marks a test that never ran (flag mismatch or a failed
	// runnable check). It is invisible to scope counters.
	VerdictNone Verdict = ""

	VerdictPass   Verdict = "PASS"
	VerdictFail   Verdict = "FAIL"
	VerdictTestNA Verdict = "TESTNA"
	VerdictWarn   Verdict = "WARN"
)

// FailureKind classifies a single exceptional signal observed while a test ran
type FailureKind string

const (
	FailureKindError         FailureKind = "error"          // setup/harness fault unrelated to the feature under test
	FailureKindFailure       FailureKind = "failure"        // the test body reported a failed check
	FailureKindNotApplicable FailureKind = "not_applicable" // the check does not apply to this configuration
	FailureKindUnknown       FailureKind = "unknown"        // anything not recognized as one of the above
)

// FailureRecord is one entry per exceptional signal observed while running a
// single test. A test accumulates zero or more of these during one execution;
// zero means the test passed.
type FailureRecord struct {
	Kind    FailureKind
	Message string
}

// CheckError reports a setup or harness level fault unrelated to the feature
// under test (a dead facade, an unreachable peer, etc).
type CheckError struct {
	Msg string
}

func (e *CheckError) Error() string { return e.Msg }

// NewCheckError creates a new CheckError
func NewCheckError(format string, args ...any) *CheckError {
	return &CheckError{Msg: fmt.Sprintf(format, args...)}
}

// CheckFailure reports an explicitly failed check from the test body.
type CheckFailure struct {
	Msg string
}

func (e *CheckFailure) Error() string { return e.Msg }

// NewCheckFailure creates a new CheckFailure
func NewCheckFailure(format string, args ...any) *CheckFailure {
	return &CheckFailure{Msg: fmt.Sprintf(format, args...)}
}

// NotApplicableError reports that the check does not apply to the current
// configuration. It is a result value carried on the error channel, not a
// failure.
type NotApplicableError struct {
	Msg string
}

func (e *NotApplicableError) Error() string { return e.Msg }

// NewNotApplicableError creates a new NotApplicableError
func NewNotApplicableError(format string, args ...any) *NotApplicableError {
	return &NotApplicableError{Msg: fmt.Sprintf(format, args...)}
}

// KindOfError maps an error raised by a test body (or a device lookup) to the
// failure taxonomy. Unrecognized errors map to FailureKindUnknown.
func KindOfError(err error) FailureKind {
	var checkErr *CheckError
	if errors.As(err, &checkErr) {
		return FailureKindError
	}
	var checkFail *CheckFailure
	if errors.As(err, &checkFail) {
		return FailureKindFailure
	}
	var notApplicable *NotApplicableError
	if errors.As(err, &notApplicable) {
		return FailureKindNotApplicable
	}
	return FailureKindUnknown
}
