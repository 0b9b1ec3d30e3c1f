// Package exitcodes defines the standard exit codes used by quicktest.
package exitcodes

// Exit code constants used by quicktest
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when the run escalates to PASS
// * TestFailure (1): Used when the run escalates to FAIL, TESTNA or WARN
// * RuntimeErr (2): Used for runtime errors such as panics or configuration failures
const (
	Success     = 0 // Run passed
	TestFailure = 1 // Run escalated to a non-PASS verdict
	RuntimeErr  = 2 // Runtime errors or invariant violations
)
