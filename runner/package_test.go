package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwlab/quicktest/types"
)

func TestPackageUpdateIterationWithoutPackage(t *testing.T) {
	r := newTestRunner(t, Config{})
	err := r.PackageUpdateIteration(1)
	require.ErrorIs(t, err, ErrNoActivePackage)
}

func TestPackageLifecyclePassing(t *testing.T) {
	r := newTestRunner(t, Config{})

	r.PackageStart("health")
	require.True(t, r.PackageRunning())

	for it := 1; it <= 2; it++ {
		require.NoError(t, r.PackageUpdateIteration(it))
		err := r.RunBatch("basic", 1, true, func(int) error {
			_, _, err := r.RunTest(passingProc, TestOptions{Name: "ok"})
			return err
		})
		require.NoError(t, err)
	}

	r.PackageSummary()
	assert.Equal(t, 2, r.PackageCounters().Pass)
	require.NoError(t, r.PackageEnd())
	assert.False(t, r.PackageRunning())
}

func TestPackageEndSurfacesNestedFailures(t *testing.T) {
	r := newTestRunner(t, Config{})
	r.PackageStart("health")

	err := r.RunBatch("mixed", 1, true, func(int) error {
		if _, _, err := r.RunTest(passingProc, TestOptions{Name: "ok"}); err != nil {
			return err
		}
		if _, _, err := r.RunTest(failingProc, TestOptions{Name: "bad"}); err != nil {
			return err
		}
		naProc := func(tc *types.TestContext) error { return types.NewNotApplicableError("n/a") }
		_, _, err := r.RunTest(naProc, TestOptions{Name: "skip"})
		return err
	})
	require.NoError(t, err)

	err = r.PackageEnd()
	require.Error(t, err)
	verdictErr := AsVerdictError(err)
	require.NotNil(t, verdictErr)
	assert.Equal(t, types.VerdictFail, verdictErr.Verdict)
	// One summary line per visible test, carried from the package scope.
	assert.Len(t, verdictErr.Messages, 3)
}

func TestPackageEndClearsRunningFlagOnFault(t *testing.T) {
	r := newTestRunner(t, Config{})
	r.PackageStart("health")

	err := r.RunBatch("basic", 1, true, func(int) error {
		_, _, err := r.RunTest(failingProc, TestOptions{Name: "bad"})
		return err
	})
	require.NoError(t, err)

	require.Error(t, r.PackageEnd())
	assert.False(t, r.PackageRunning())
}

func TestPackageStartResetsCounters(t *testing.T) {
	r := newTestRunner(t, Config{})

	r.PackageStart("first")
	err := r.RunBatch("basic", 1, true, func(int) error {
		_, _, err := r.RunTest(failingProc, TestOptions{Name: "bad"})
		return err
	})
	require.NoError(t, err)
	require.Error(t, r.PackageEnd())

	// A fresh package starts from zero; nothing leaks from the failed one.
	r.PackageStart("second")
	err = r.RunBatch("basic", 1, true, func(int) error {
		_, _, err := r.RunTest(passingProc, TestOptions{Name: "ok"})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, r.PackageCounters().Total())
	require.NoError(t, r.PackageEnd())
}

func TestPackageAccumulatesAcrossBatches(t *testing.T) {
	r := newTestRunner(t, Config{})
	r.PackageStart("health")

	for _, batch := range []string{"one", "two", "three"} {
		err := r.RunBatch(batch, 1, true, func(int) error {
			_, _, err := r.RunTest(passingProc, TestOptions{Name: batch + "-test"})
			return err
		})
		require.NoError(t, err)
	}

	pkg := r.PackageCounters()
	assert.Equal(t, 3, pkg.Pass)
	assert.Len(t, pkg.Results, 3)
	require.NoError(t, r.PackageEnd())
}

func TestPackageTestNAEscalation(t *testing.T) {
	r := newTestRunner(t, Config{})
	r.PackageStart("health")

	err := r.RunBatch("basic", 1, true, func(int) error {
		naProc := func(tc *types.TestContext) error { return types.NewNotApplicableError("n/a") }
		if _, _, err := r.RunTest(naProc, TestOptions{Name: "skip"}); err != nil {
			return err
		}
		_, _, err := r.RunTest(passingProc, TestOptions{Name: "ok"})
		return err
	})
	require.NoError(t, err)

	err = r.PackageEnd()
	require.Error(t, err)
	verdictErr := AsVerdictError(err)
	require.NotNil(t, verdictErr)
	assert.Equal(t, types.VerdictTestNA, verdictErr.Verdict)
}
