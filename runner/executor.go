package runner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"github.com/hwlab/quicktest/metrics"
	"github.com/hwlab/quicktest/types"
)

// FlagAll is the wildcard applicability tag; a test carrying it runs under
// every run flag.
const FlagAll = "all"

// DeviceInfoProvider supplies the hardware identity used for denylist and
// forced-list matching. Implementations typically proxy a remote daemon; the
// engine treats the returned names as opaque strings.
type DeviceInfoProvider interface {
	ModelName() (string, error)
	ChipsetName() (string, error)
}

// TestSource resolves a registered test by name. Implemented by the registry.
type TestSource interface {
	Test(name string) (RegisteredTest, error)
}

// RegisteredTest is a procedure bound to its execution options.
type RegisteredTest struct {
	Proc    types.TestProcedure
	Options TestOptions
}

// ResultSink receives one line per test verdict. Implemented by the file
// logger; a nil sink is valid.
type ResultSink interface {
	Result(line string, verdict types.Verdict)
}

// TestOptions enumerates the recognized per-test execution options.
type TestOptions struct {
	// Name of the test, used in logs and summary lines.
	Name string

	// Flags lists the run flags under which the test is applicable. An empty
	// list or the FlagAll wildcard makes it applicable everywhere. A test
	// skipped by flag mismatch is invisible to counters.
	Flags []string

	// IsRunnable, when set and returning false, makes the call return
	// immediately with no verdict recorded.
	IsRunnable func(tc *types.TestContext) bool

	// ModelDenylist and ChipsetDenylist mark the test not-applicable on
	// matching hardware without running the body.
	ModelDenylist   []string
	ChipsetDenylist []string

	// ForcedNAModels and ForcedWarnModels reinterpret any failure on matching
	// models as TESTNA or WARN instead of FAIL.
	ForcedNAModels   []string
	ForcedWarnModels []string

	// PreHook runs after the applicability and denylist checks, before the
	// body. Its faults are captured like body faults.
	PreHook types.Hook

	// PostHook runs after classification and result logging. Its faults are
	// not captured; they propagate to the caller.
	PostHook types.Hook

	// SuppressKnownCommonFaults reports failures the body flagged as known
	// common faults as TESTNA. Use sparingly, it may mask bugs.
	SuppressKnownCommonFaults bool
}

// OptionsFromConfig builds TestOptions from a plan entry. Hooks and runnable
// checks are code-side and attached by the registry.
func OptionsFromConfig(cfg types.TestConfig) TestOptions {
	return TestOptions{
		Name:                      cfg.Name,
		Flags:                     cfg.Flags,
		ModelDenylist:             cfg.ModelDenylist,
		ChipsetDenylist:           cfg.ChipsetDenylist,
		ForcedNAModels:            cfg.ForcedNAModels,
		ForcedWarnModels:          cfg.ForcedWarnModels,
		SuppressKnownCommonFaults: cfg.SuppressKnownCommonFaults,
	}
}

// Config contains runner configuration.
type Config struct {
	Log    log.Logger
	Device DeviceInfoProvider

	// Flag is the applicability tag of this run (e.g. "minimal", "full",
	// "all"); tests whose Flags don't include it are skipped.
	Flag string

	// Tests resolves names for RunSingleTest. Optional.
	Tests TestSource

	// Sink receives verdict lines. Optional.
	Sink ResultSink

	// RunID labels metrics emitted by this run.
	RunID string
}

// Runner drives one sequential quick-test run. Not safe for concurrent use;
// the whole engine assumes a single control goroutine.
type Runner struct {
	log    log.Logger
	device DeviceInfoProvider
	flag   string
	tests  TestSource
	sink   ResultSink
	runID  string

	bat        ScopeCounters
	pkg        ScopeCounters
	pkgRunning bool

	// testIter is the current single-test iteration, nil outside of
	// RunSingleTest.
	testIter *int
}

// NewRunner creates a new Runner.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Device == nil {
		return nil, errors.New("device info provider is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	if cfg.Flag == "" {
		cfg.Flag = FlagAll
	}
	return &Runner{
		log:    cfg.Log,
		device: cfg.Device,
		flag:   cfg.Flag,
		tests:  cfg.Tests,
		sink:   cfg.Sink,
		runID:  cfg.RunID,
	}, nil
}

// Flag returns the applicability tag of this run.
func (r *Runner) Flag() string { return r.flag }

// BatchCounters returns a snapshot of the batch-scope counters.
func (r *Runner) BatchCounters() ScopeCounters { return r.bat.Snapshot() }

// PackageCounters returns a snapshot of the package-scope counters.
func (r *Runner) PackageCounters() ScopeCounters { return r.pkg.Snapshot() }

// PackageRunning reports whether a package scope is open.
func (r *Runner) PackageRunning() bool { return r.pkgRunning }

// RunTest executes one test procedure under the given options and returns the
// classified verdict together with the failure records collected during the
// run. A VerdictNone result means the test never ran and touched no counters.
// The returned error is non-nil only for caller mistakes (nil procedure) or a
// post-hook fault, which propagates uncaught by design.
func (r *Runner) RunTest(proc types.TestProcedure, opts TestOptions) (types.Verdict, []types.FailureRecord, error) {
	if proc == nil {
		return types.VerdictNone, nil, fmt.Errorf("test %q has no procedure", opts.Name)
	}

	tc := &types.TestContext{Name: opts.Name, Iteration: r.testIter}

	if !flagApplies(r.flag, opts.Flags) {
		r.log.Info("SKIPPING TEST", "test", opts.Name, "runFlag", r.flag, "testFlags", opts.Flags)
		r.printDelimiter()
		return types.VerdictNone, nil, nil
	}
	if opts.IsRunnable != nil && !opts.IsRunnable(tc) {
		return types.VerdictNone, nil, nil
	}

	model := r.runProtected(tc, opts, proc)

	verdict := Classify(
		tc.Failures,
		containsName(opts.ForcedNAModels, model),
		containsName(opts.ForcedWarnModels, model),
		tc.HadKnownCommonFault,
		opts.SuppressKnownCommonFaults,
	)

	line := r.resultLine(verdict, opts.Name)
	r.log.Info(line)
	r.printDelimiter()

	// Fold into the batch scope and, when a package is open, the package
	// scope. Exactly one increment per scope per test run.
	r.bat.Record(verdict, line)
	if r.pkgRunning {
		r.pkg.Record(verdict, line)
	}
	if r.sink != nil {
		r.sink.Result(line, verdict)
	}
	metrics.RecordVerdict(r.runID, r.bat.Name, opts.Name, verdict)

	if opts.PostHook != nil {
		if err := opts.PostHook(tc); err != nil {
			return verdict, tc.Failures, fmt.Errorf("post hook for test %q: %w", opts.Name, err)
		}
	}
	return verdict, tc.Failures, nil
}

// runProtected performs the device lookups, the pre hook and the test body
// inside one capture region. Any fault is converted to exactly one failure
// record and stops further execution of the test; the surrounding lifecycle
// continues. Returns the model name for forced-list matching (empty when the
// lookup itself faulted).
func (r *Runner) runProtected(tc *types.TestContext, opts TestOptions, proc types.TestProcedure) (model string) {
	defer func() {
		if rec := recover(); rec != nil {
			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", rec)
			}
			r.recordFault(tc, opts.Name, err)
		}
	}()

	model, err := r.device.ModelName()
	if err != nil {
		r.recordFault(tc, opts.Name, types.NewCheckError("model lookup failed: %v", err))
		return model
	}
	if containsName(opts.ModelDenylist, model) {
		r.log.Info("SKIPPING TEST", "test", opts.Name, "model", model)
		r.recordFault(tc, opts.Name, types.NewNotApplicableError("test not supported on model %s", model))
		return model
	}

	chipset, err := r.device.ChipsetName()
	if err != nil {
		r.recordFault(tc, opts.Name, types.NewCheckError("chipset lookup failed: %v", err))
		return model
	}
	r.log.Debug("Device chipset", "chipset", chipset)
	if containsName(opts.ChipsetDenylist, chipset) {
		r.log.Info("SKIPPING TEST", "test", opts.Name, "chipset", chipset)
		r.recordFault(tc, opts.Name, types.NewNotApplicableError("test not supported on chipset %s", chipset))
		return model
	}

	if opts.PreHook != nil {
		if err := opts.PreHook(tc); err != nil {
			r.recordFault(tc, opts.Name, err)
			return model
		}
	}

	r.printDelimiter()
	r.log.Info("Starting test", "test", opts.Name)

	if err := proc(tc); err != nil {
		r.recordFault(tc, opts.Name, err)
	}
	return model
}

// recordFault converts one fault into one failure record and logs it.
func (r *Runner) recordFault(tc *types.TestContext, name string, err error) {
	kind := types.KindOfError(err)
	var msg string
	switch kind {
	case types.FailureKindError:
		msg = fmt.Sprintf("[--- error %s (%v)]", name, err)
	case types.FailureKindFailure:
		msg = fmt.Sprintf("[--- failed %s (%v)]", name, err)
	case types.FailureKindNotApplicable:
		msg = fmt.Sprintf("[--- SKIPPED %s (%v)]", name, err)
	default:
		msg = fmt.Sprintf("[--- unknown error %s (%v)]", name, err)
	}
	r.log.Error(msg)
	tc.Failures = append(tc.Failures, types.FailureRecord{Kind: kind, Message: msg})
}

// resultLine builds the single human-readable verdict line for one test run.
func (r *Runner) resultLine(v types.Verdict, testName string) string {
	var parts []string
	if r.testIter != nil {
		parts = append(parts, fmt.Sprintf("Test Iter: %d", *r.testIter))
	}
	if r.bat.Name != "" {
		parts = append(parts, fmt.Sprintf("Batch Iter: %d", r.bat.Iteration))
	}
	if r.pkgRunning {
		parts = append(parts, fmt.Sprintf("Package Iter: %d", r.pkg.Iteration))
	}
	if r.bat.Name != "" {
		parts = append(parts, "Batch Name: "+r.bat.Name)
	}
	parts = append(parts, "Test Name: "+testName)
	return verdictLabel(v) + " | " + strings.Join(parts, ", ")
}

func verdictLabel(v types.Verdict) string {
	switch v {
	case types.VerdictPass:
		return "PASSED"
	case types.VerdictTestNA:
		return "TESTNA"
	case types.VerdictWarn:
		return "WARN  "
	default:
		return "FAIL  "
	}
}

func (r *Runner) printDelimiter() {
	r.log.Info("=======================================================")
}

func flagApplies(runFlag string, testFlags []string) bool {
	if len(testFlags) == 0 {
		return true
	}
	for _, f := range testFlags {
		if f == FlagAll || f == runFlag {
			return true
		}
	}
	return false
}

func containsName(names []string, name string) bool {
	if name == "" {
		return false
	}
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
