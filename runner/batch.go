package runner

import (
	"fmt"

	"github.com/hwlab/quicktest/metrics"
	"github.com/hwlab/quicktest/types"
)

// BatchBody runs the tests of one batch iteration. It typically invokes
// RunTest once per test; results are folded into the batch counters by the
// executor. A non-nil error (a propagating post-hook fault) aborts the batch.
type BatchBody func(iteration int) error

// RunBatch executes a batch body for the requested number of iterations. The
// batch counters are reset at the start of every iteration and escalated at
// its end. When the escalated verdict is not PASS:
//
//   - nested (a package is open): the escalation is logged only; the package
//     absorbs it, since the package counters were already updated per test.
//   - not nested: a VerdictError carrying the batch's summary lines is
//     returned.
func (r *Runner) RunBatch(name string, iterations int, nested bool, body BatchBody) error {
	if iterations < 1 {
		iterations = 1
	}
	for it := 1; it <= iterations; it++ {
		r.bat.Reset(name, it)
		if err := body(it); err != nil {
			return err
		}
		if err := r.batchEnd(nested); err != nil {
			return err
		}
	}
	return nil
}

// RunSingleTest executes one registered test repeatedly, outside a full
// batch. This is the ad-hoc diagnostic path: after all iterations the batch
// counters are escalated and any non-PASS verdict is surfaced unconditionally,
// regardless of package nesting.
func (r *Runner) RunSingleTest(testName string, iterations int) error {
	if r.tests == nil {
		return fmt.Errorf("no test source configured, cannot resolve test %q", testName)
	}
	rt, err := r.tests.Test(testName)
	if err != nil {
		return err
	}
	if iterations < 1 {
		iterations = 1
	}

	// Start from clean counters so the escalation below covers only this
	// diagnostic run.
	r.bat.Reset("single:"+testName, 0)
	defer func() { r.testIter = nil }()

	for it := 1; it <= iterations; it++ {
		iter := it
		r.testIter = &iter
		if _, _, err := r.RunTest(rt.Proc, rt.Options); err != nil {
			return err
		}
	}

	if v := r.bat.Escalate(); v != types.VerdictPass {
		return NewVerdictError(v, r.bat.Results)
	}
	return nil
}

// batchEnd logs the batch summary block and escalates the batch counters.
func (r *Runner) batchEnd(nested bool) error {
	r.log.Info("Test batch summary",
		"batch", r.bat.Name,
		"iteration", r.bat.Iteration,
		"pass", r.bat.Pass,
		"fail", r.bat.Fail,
		"warn", r.bat.Warn,
		"na", r.bat.TestNA)
	for _, result := range r.bat.Results {
		r.log.Info(result)
	}
	r.printDelimiter()

	verdict := r.bat.Escalate()
	metrics.RecordScope(r.runID, "batch", r.bat.Name, verdict)

	switch verdict {
	case types.VerdictFail:
		r.log.Error("===> Test batch failed, one or more failures", "batch", r.bat.Name)
	case types.VerdictTestNA:
		r.log.Error("===> Test batch passed with some TESTNA results", "batch", r.bat.Name)
	case types.VerdictWarn:
		r.log.Error("===> Test batch passed with some WARN results", "batch", r.bat.Name)
	default:
		r.log.Info("===> Test batch passed, zero failures", "batch", r.bat.Name)
		r.printDelimiter()
		return nil
	}
	r.printDelimiter()

	if nested {
		// The enclosing package reports instead; its counters were already
		// incremented independently by RunTest.
		return nil
	}
	return NewVerdictError(verdict, r.bat.Results)
}
