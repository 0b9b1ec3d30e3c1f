package runner

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwlab/quicktest/types"
)

type stubSource map[string]RegisteredTest

func (s stubSource) Test(name string) (RegisteredTest, error) {
	rt, ok := s[name]
	if !ok {
		return RegisteredTest{}, fmt.Errorf("test %q is not registered", name)
	}
	return rt, nil
}

func TestRunBatchAllPassing(t *testing.T) {
	r := newTestRunner(t, Config{})
	var iterations []int

	err := r.RunBatch("health", 3, false, func(it int) error {
		iterations = append(iterations, it)
		_, _, err := r.RunTest(passingProc, TestOptions{Name: "ok"})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, iterations)
}

func TestRunBatchNotNestedEscalates(t *testing.T) {
	r := newTestRunner(t, Config{})

	err := r.RunBatch("health", 1, false, func(it int) error {
		_, _, err := r.RunTest(passingProc, TestOptions{Name: "ok"})
		require.NoError(t, err)
		_, _, err = r.RunTest(failingProc, TestOptions{Name: "bad"})
		return err
	})
	require.Error(t, err)

	verdictErr := AsVerdictError(err)
	require.NotNil(t, verdictErr)
	assert.Equal(t, types.VerdictFail, verdictErr.Verdict)
	assert.Len(t, verdictErr.Messages, 2)
}

func TestRunBatchNotNestedWarnEscalates(t *testing.T) {
	r := newTestRunner(t, Config{})

	err := r.RunBatch("health", 1, false, func(it int) error {
		_, _, err := r.RunTest(failingProc, TestOptions{
			Name:             "soft",
			ForcedWarnModels: []string{"modelA"},
		})
		return err
	})
	require.Error(t, err)

	verdictErr := AsVerdictError(err)
	require.NotNil(t, verdictErr)
	assert.Equal(t, types.VerdictWarn, verdictErr.Verdict)
}

func TestRunBatchNestedAbsorbed(t *testing.T) {
	r := newTestRunner(t, Config{})
	r.PackageStart("pkg")

	err := r.RunBatch("health", 1, true, func(it int) error {
		_, _, err := r.RunTest(failingProc, TestOptions{Name: "bad"})
		return err
	})
	// Nested batches never raise; the package reports instead.
	require.NoError(t, err)

	err = r.PackageEnd()
	require.Error(t, err)
	verdictErr := AsVerdictError(err)
	require.NotNil(t, verdictErr)
	assert.Equal(t, types.VerdictFail, verdictErr.Verdict)
}

func TestRunBatchCountersResetPerIteration(t *testing.T) {
	r := newTestRunner(t, Config{})
	r.PackageStart("pkg")

	err := r.RunBatch("health", 3, true, func(it int) error {
		_, _, err := r.RunTest(failingProc, TestOptions{Name: "bad"})
		return err
	})
	require.NoError(t, err)

	// The package accumulated all iterations, the batch only the last one.
	assert.Equal(t, 3, r.PackageCounters().Fail)
	assert.Equal(t, 1, r.BatchCounters().Fail)
	assert.Equal(t, 3, r.BatchCounters().Iteration)
}

func TestRunBatchBodyErrorAborts(t *testing.T) {
	r := newTestRunner(t, Config{})
	boom := errors.New("post hook exploded")
	ran := 0

	err := r.RunBatch("health", 3, false, func(it int) error {
		ran++
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, ran)
}

func TestRunBatchZeroIterationsRunsOnce(t *testing.T) {
	r := newTestRunner(t, Config{})
	ran := 0

	err := r.RunBatch("health", 0, false, func(it int) error {
		ran++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, ran)
}

func TestRunSingleTestPass(t *testing.T) {
	r := newTestRunner(t, Config{
		Tests: stubSource{"ok": {Proc: passingProc, Options: TestOptions{Name: "ok"}}},
	})

	require.NoError(t, r.RunSingleTest("ok", 3))
	assert.Equal(t, 3, r.BatchCounters().Pass)
	assert.Nil(t, r.testIter)
}

func TestRunSingleTestIterationVisibleToBody(t *testing.T) {
	var seen []int
	proc := func(tc *types.TestContext) error {
		require.NotNil(t, tc.Iteration)
		seen = append(seen, *tc.Iteration)
		return nil
	}
	r := newTestRunner(t, Config{
		Tests: stubSource{"counted": {Proc: proc, Options: TestOptions{Name: "counted"}}},
	})

	require.NoError(t, r.RunSingleTest("counted", 3))
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestRunSingleTestRaisesEvenInsidePackage(t *testing.T) {
	r := newTestRunner(t, Config{
		Tests: stubSource{"bad": {Proc: failingProc, Options: TestOptions{Name: "bad"}}},
	})
	r.PackageStart("pkg")

	// Unlike a nested batch, the single-test path surfaces its escalation
	// unconditionally.
	err := r.RunSingleTest("bad", 2)
	require.Error(t, err)
	verdictErr := AsVerdictError(err)
	require.NotNil(t, verdictErr)
	assert.Equal(t, types.VerdictFail, verdictErr.Verdict)
	assert.Len(t, verdictErr.Messages, 2)
}

func TestRunSingleTestUnknownName(t *testing.T) {
	r := newTestRunner(t, Config{Tests: stubSource{}})
	err := r.RunSingleTest("missing", 1)
	require.Error(t, err)
	assert.ErrorContains(t, err, "missing")
}

func TestRunSingleTestNoSource(t *testing.T) {
	r := newTestRunner(t, Config{})
	err := r.RunSingleTest("anything", 1)
	require.Error(t, err)
}
