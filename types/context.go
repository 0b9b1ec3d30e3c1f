package types

import "fmt"

// TestProcedure is the core body of a single test. It receives the context of
// the current invocation and reports its outcome through the returned error:
// nil for pass, a typed error (CheckError, CheckFailure, NotApplicableError)
// for a classified signal, anything else for an unknown fault.
type TestProcedure func(tc *TestContext) error

// Hook is an optional callback run around a test body.
type Hook func(tc *TestContext) error

// TestContext holds the state of one test invocation. It is created fresh for
// every test run and discarded afterwards; nothing outside the run observes it.
type TestContext struct {
	// Name is the name of the test being run.
	Name string

	// Iteration is the current single-test iteration index, nil outside of
	// repeated single-test runs.
	Iteration *int

	// Failures is the ordered list of signals collected during the run.
	Failures []FailureRecord

	// HadKnownCommonFault can be set by the test body to hint that a failure
	// is a known environmental flake (USB disconnect, daemon crash, etc).
	HadKnownCommonFault bool
}

// RecordFailure appends one failure record to the context.
func (tc *TestContext) RecordFailure(kind FailureKind, format string, args ...any) {
	tc.Failures = append(tc.Failures, FailureRecord{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	})
}

// Failed reports whether any failure was recorded.
func (tc *TestContext) Failed() bool {
	return len(tc.Failures) > 0
}
