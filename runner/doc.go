// Package runner implements the quick-test execution engine: it runs
// registered test procedures, classifies their outcomes into verdicts and
// aggregates those verdicts across batch and package scopes.
//
// The engine is single-threaded by design. One Runner drives one sequential
// run; the batch and package counters are only ever touched from the calling
// goroutine, so the engine itself needs no locks.
package runner
