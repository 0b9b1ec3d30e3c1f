package runner

import (
	"github.com/hwlab/quicktest/types"
)

// ScopeCounters accumulates classified verdicts for one scope (a batch or a
// package). It is reset at scope start and mutated once per test that ran.
type ScopeCounters struct {
	Name      string
	Iteration int

	Pass   int
	Fail   int
	TestNA int
	Warn   int

	// Results holds one summary line per test (or nested batch) that ran in
	// this scope.
	Results []string
}

// Reset clears all counters and results and names the scope. Called exactly
// once at batch start and package start.
func (c *ScopeCounters) Reset(name string, iteration int) {
	*c = ScopeCounters{Name: name, Iteration: iteration}
}

// Record folds one classified verdict into the counters. VerdictNone (a test
// that never ran) is invisible and recorded nowhere.
func (c *ScopeCounters) Record(v types.Verdict, line string) {
	switch v {
	case types.VerdictPass:
		c.Pass++
	case types.VerdictFail:
		c.Fail++
	case types.VerdictTestNA:
		c.TestNA++
	case types.VerdictWarn:
		c.Warn++
	default:
		return
	}
	c.Results = append(c.Results, line)
}

// Escalate derives the scope verdict from the counters. Precedence, first
// match wins: FAIL if any test failed, else TESTNA, else WARN, else PASS.
// This operates over counts of already-classified results and is independent
// of the per-test classification order in Classify.
func (c *ScopeCounters) Escalate() types.Verdict {
	switch {
	case c.Fail > 0:
		return types.VerdictFail
	case c.TestNA > 0:
		return types.VerdictTestNA
	case c.Warn > 0:
		return types.VerdictWarn
	default:
		return types.VerdictPass
	}
}

// Total returns the number of tests recorded in this scope.
func (c ScopeCounters) Total() int {
	return c.Pass + c.Fail + c.TestNA + c.Warn
}

// Snapshot returns a copy safe to hold across a later Reset.
func (c *ScopeCounters) Snapshot() ScopeCounters {
	out := *c
	out.Results = make([]string, len(c.Results))
	copy(out.Results, c.Results)
	return out
}
