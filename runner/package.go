package runner

import (
	"github.com/hwlab/quicktest/metrics"
	"github.com/hwlab/quicktest/types"
)

// PackageStart opens a package scope. The package counters are reset here and
// only here; they then accumulate across every nested batch until PackageEnd.
func (r *Runner) PackageStart(name string) {
	r.pkg.Reset(name, 0)
	r.pkgRunning = true
	r.log.Info("Starting test package", "package", name)
}

// PackageUpdateIteration records the current package iteration. Calling it
// without an open package is a caller invariant violation and fails loudly
// with ErrNoActivePackage.
func (r *Runner) PackageUpdateIteration(iteration int) error {
	if !r.pkgRunning {
		r.log.Error("No test package is running")
		return ErrNoActivePackage
	}
	r.pkg.Iteration = iteration
	r.log.Info("Starting test package iteration", "package", r.pkg.Name, "iteration", iteration)
	return nil
}

// PackageSummary logs the results summary block of the open package.
func (r *Runner) PackageSummary() {
	r.log.Info("Test package summary",
		"package", r.pkg.Name,
		"pass", r.pkg.Pass,
		"fail", r.pkg.Fail,
		"warn", r.pkg.Warn,
		"na", r.pkg.TestNA)
	for _, result := range r.pkg.Results {
		r.log.Info(result)
	}
	r.printDelimiter()
}

// PackageEnd closes the package scope and escalates the package counters. The
// running flag is cleared on return in every case, fault included. A non-PASS
// verdict is always surfaced as a VerdictError carrying the package's summary
// lines.
func (r *Runner) PackageEnd() error {
	defer func() { r.pkgRunning = false }()

	verdict := r.pkg.Escalate()
	metrics.RecordScope(r.runID, "package", r.pkg.Name, verdict)

	switch verdict {
	case types.VerdictFail:
		r.log.Error("===> Test package failed, one or more failures", "package", r.pkg.Name)
	case types.VerdictTestNA:
		r.log.Error("===> Test package passed with some TESTNA results", "package", r.pkg.Name)
	case types.VerdictWarn:
		r.log.Error("===> Test package passed with some WARN results", "package", r.pkg.Name)
	default:
		r.log.Info("===> Test package passed, zero failures", "package", r.pkg.Name)
		r.printDelimiter()
		return nil
	}
	r.printDelimiter()

	return NewVerdictError(verdict, r.pkg.Results)
}
