// Package quicktest is a harness for running hardware-validation checks
// cheaply by batching them. Registered test procedures are executed
// sequentially; each completed test is classified into a verdict (PASS, FAIL,
// TESTNA or WARN), and verdicts are accumulated and escalated at batch and
// package scope.
package quicktest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hwlab/quicktest/exitcodes"
	"github.com/hwlab/quicktest/logging"
	"github.com/hwlab/quicktest/metrics"
	"github.com/hwlab/quicktest/registry"
	"github.com/hwlab/quicktest/runner"
	"github.com/hwlab/quicktest/types"
)

// Lifecycle is the interface the cmd layer drives.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Stopped() bool
}

// harness implements the Lifecycle interface.
var _ Lifecycle = &harness{}

// ScopeReport is the reported outcome of one batch or package scope.
type ScopeReport struct {
	Scope    string // "batch" or "package"
	Verdict  types.Verdict
	Counters runner.ScopeCounters
}

// RunResult captures the complete outcome of one run.
type RunResult struct {
	RunID    string
	Verdict  types.Verdict
	Duration time.Duration
	Scopes   []ScopeReport

	// Per-test totals across all batches.
	Totals runner.ScopeCounters
}

// harness drives quick-test runs for one plan.
type harness struct {
	ctx      context.Context
	config   *Config
	version  string
	registry *registry.Registry
	device   runner.DeviceInfoProvider
	result   *RunResult

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	shutdownCallback func(error) // Callback to signal application shutdown
}

// New creates a harness. The device provider and the registered entries are
// supplied by the embedding system; every test the plan references must be
// registered.
func New(ctx context.Context, config *Config, version string, device runner.DeviceInfoProvider, entries []registry.Entry, shutdownCallback func(error)) (*harness, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if device == nil {
		return nil, errors.New("device info provider is required")
	}

	config.Log.Debug("Creating harness with config",
		"planFile", config.PlanFile,
		"package", config.Package,
		"batch", config.Batch,
		"test", config.Test,
		"runFlag", config.RunFlag,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce)

	reg, err := registry.NewRegistry(registry.Config{
		Log:      config.Log,
		PlanFile: config.PlanFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}
	for _, e := range entries {
		if err := reg.Register(e); err != nil {
			return nil, fmt.Errorf("failed to register test: %w", err)
		}
	}
	if err := reg.Verify(); err != nil {
		return nil, fmt.Errorf("plan verification failed: %w", err)
	}
	config.Log.Info("quicktest.New: created registry", "plan", config.PlanFile)

	return &harness{
		ctx:              ctx,
		config:           config,
		version:          version,
		registry:         reg,
		device:           device,
		done:             make(chan struct{}),
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the plan, periodically when an interval is configured.
// Start implements the Lifecycle interface.
func (h *harness) Start(ctx context.Context) error {
	// Set up panic recovery to ensure we exit with code 2 for runtime errors
	defer func() {
		if r := recover(); r != nil {
			h.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	h.ctx = ctx
	h.done = make(chan struct{})
	h.running.Store(true)

	if h.config.RunOnce {
		h.config.Log.Info("Starting quicktest in run-once mode")
	} else {
		h.config.Log.Info("Starting quicktest in continuous mode", "interval", h.config.RunInterval)
	}

	err := h.runOnce()
	if err != nil {
		if runner.IsVerdictError(err) {
			// The engine computed a non-PASS verdict; not a runtime error.
			h.config.Log.Warn("Run completed with a non-PASS verdict", "error", err)
		} else {
			h.config.Log.Error("Runtime error running tests", "error", err)
			return NewRuntimeError(err)
		}
	}

	if h.config.RunOnce {
		h.config.Log.Info("Run completed, exiting (run-once mode)")

		if verdictErr := runner.AsVerdictError(err); verdictErr != nil {
			return NewTestFailureError(verdictErr.Error())
		}

		go func() {
			h.shutdownCallback(nil)
		}()
		return nil
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.config.Log.Debug("Starting periodic runner goroutine", "interval", h.config.RunInterval)

		for {
			select {
			case <-time.After(h.config.RunInterval):
				if !h.running.Load() {
					h.config.Log.Debug("Service stopped, exiting periodic runner")
					return
				}

				h.config.Log.Info("Running periodic quick tests")
				if err := h.runOnce(); err != nil {
					h.config.Log.Error("Error running periodic quick tests", "error", err)
				}

			case <-h.done:
				h.config.Log.Debug("Done signal received, stopping periodic runner")
				return

			case <-ctx.Done():
				h.config.Log.Debug("Context canceled, stopping periodic runner")
				h.running.Store(false)
				return
			}
		}
	}()
	h.config.Log.Debug("quicktest started successfully")
	return nil
}

// Stop stops the quicktest service.
// Stop implements the Lifecycle interface.
func (h *harness) Stop(ctx context.Context) error {
	h.config.Log.Info("Stopping quicktest")

	if !h.running.Load() {
		h.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}

	h.running.Store(false)
	h.config.Log.Debug("Sending done signal to goroutines")
	close(h.done)

	h.config.Log.Info("quicktest stopped successfully")
	return nil
}

// Stopped returns true if the quicktest service is stopped.
// Stopped implements the Lifecycle interface.
func (h *harness) Stopped() bool {
	return !h.running.Load()
}

// Result returns the outcome of the most recent run.
func (h *harness) Result() *RunResult {
	return h.result
}

// runOnce executes the configured selection once and reports the outcome. A
// returned *runner.VerdictError means the engine escalated to a non-PASS
// verdict; any other error is a runtime fault.
func (h *harness) runOnce() error {
	runID := uuid.New().String()
	start := time.Now()

	_, span := otel.Tracer("quicktest").Start(h.ctx, "quicktest.run",
		trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	fileLogger, err := logging.NewFileLogger(h.config.LogDir, runID)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer fileLogger.Close()

	r, err := runner.NewRunner(runner.Config{
		Log:    h.config.Log,
		Device: h.device,
		Flag:   h.config.RunFlag,
		Tests:  h.registry,
		Sink:   fileLogger,
		RunID:  runID,
	})
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	result := &RunResult{RunID: runID}
	runErr := h.runSelection(r, result)
	result.Duration = time.Since(start)
	h.finalize(result, runErr)
	h.result = result

	h.printResultsTable(result)
	if err := fileLogger.WriteSummary(result.Totals.Results); err != nil {
		h.config.Log.Error("Failed to write summary log", "error", err)
	}

	metrics.RecordRun(runID, result.Verdict,
		result.Totals.Total(), result.Totals.Pass, result.Totals.Fail, result.Duration)
	h.config.Log.Info("Run completed",
		"run_id", runID,
		"verdict", result.Verdict,
		"logs", fileLogger.RunDir())

	return runErr
}

// runSelection dispatches to the selected package, batch or single test; with
// no selector, every package in the plan runs (or every batch, for plans
// without packages).
func (h *harness) runSelection(r *runner.Runner, result *RunResult) error {
	switch {
	case h.config.Test != "":
		err := r.RunSingleTest(h.config.Test, h.config.Iterations)
		if counters := r.BatchCounters(); counters.Name != "" {
			result.Scopes = append(result.Scopes, ScopeReport{
				Scope:    "batch",
				Verdict:  counters.Escalate(),
				Counters: counters,
			})
		}
		return err

	case h.config.Batch != "":
		bcfg, err := h.registry.Batch(h.config.Batch)
		if err != nil {
			return err
		}
		return h.runBatch(r, bcfg, false, result)

	case h.config.Package != "":
		pcfg, err := h.findPackage(h.config.Package)
		if err != nil {
			return err
		}
		return h.runPackage(r, pcfg, result)

	default:
		plan := h.registry.Plan()
		if len(plan.Packages) == 0 {
			for _, bcfg := range plan.Batches {
				if err := h.runBatch(r, bcfg, false, result); err != nil {
					return err
				}
			}
			return nil
		}
		for _, pcfg := range plan.Packages {
			if err := h.runPackage(r, pcfg, result); err != nil {
				return err
			}
		}
		return nil
	}
}

func (h *harness) findPackage(name string) (types.PackageConfig, error) {
	for _, p := range h.registry.Plan().Packages {
		if p.Name == name {
			return p, nil
		}
	}
	return types.PackageConfig{}, fmt.Errorf("package %q not found in plan", name)
}

// runPackage opens a package scope and runs its batches nested, once per
// package iteration. The batches' own escalations are absorbed; the package
// escalates at the end.
func (h *harness) runPackage(r *runner.Runner, pcfg types.PackageConfig, result *RunResult) error {
	_, span := otel.Tracer("quicktest").Start(h.ctx, "package."+pcfg.Name)
	defer span.End()

	r.PackageStart(pcfg.Name)

	iterations := h.effectiveIterations(pcfg.Iterations)
	for it := 1; it <= iterations; it++ {
		if err := r.PackageUpdateIteration(it); err != nil {
			return err
		}
		for _, name := range pcfg.Batches {
			bcfg, err := h.registry.Batch(name)
			if err != nil {
				return err
			}
			if err := h.runBatch(r, bcfg, true, result); err != nil {
				return err
			}
		}
	}

	r.PackageSummary()
	counters := r.PackageCounters()
	err := r.PackageEnd()
	result.Scopes = append(result.Scopes, ScopeReport{
		Scope:    "package",
		Verdict:  counters.Escalate(),
		Counters: counters,
	})
	return err
}

// runBatch runs one batch from the plan, folding per-test results through the
// engine. Nested batches never surface their escalation themselves.
func (h *harness) runBatch(r *runner.Runner, bcfg types.BatchConfig, nested bool, result *RunResult) error {
	_, span := otel.Tracer("quicktest").Start(h.ctx, "batch."+bcfg.Name)
	defer span.End()

	// The engine resets the batch counters at every iteration, so each
	// iteration's report must be captured before the next one starts.
	body := func(iteration int) error {
		var runErr error
		for _, tcfg := range bcfg.Tests {
			rt, err := h.registry.Resolve(tcfg)
			if err != nil {
				runErr = err
				break
			}
			if _, _, err := r.RunTest(rt.Proc, rt.Options); err != nil {
				runErr = err
				break
			}
		}
		counters := r.BatchCounters()
		result.Scopes = append(result.Scopes, ScopeReport{
			Scope:    "batch",
			Verdict:  counters.Escalate(),
			Counters: counters,
		})
		return runErr
	}

	iterations := bcfg.Iterations
	if !nested {
		iterations = h.effectiveIterations(bcfg.Iterations)
	}
	return r.RunBatch(bcfg.Name, iterations, nested, body)
}

// effectiveIterations applies the CLI iteration override to the selected
// scope.
func (h *harness) effectiveIterations(planned int) int {
	if h.config.Iterations > 1 {
		return h.config.Iterations
	}
	if planned < 1 {
		return 1
	}
	return planned
}

// finalize computes the per-test totals and the overall run verdict.
func (h *harness) finalize(result *RunResult, runErr error) {
	for _, s := range result.Scopes {
		if s.Scope != "batch" {
			continue
		}
		result.Totals.Pass += s.Counters.Pass
		result.Totals.Fail += s.Counters.Fail
		result.Totals.TestNA += s.Counters.TestNA
		result.Totals.Warn += s.Counters.Warn
		result.Totals.Results = append(result.Totals.Results, s.Counters.Results...)
	}

	if verdictErr := runner.AsVerdictError(runErr); verdictErr != nil {
		result.Verdict = verdictErr.Verdict
		if len(result.Scopes) == 0 {
			// No scope report made it out before the escalation; keep the
			// escalated scope's own lines so the summary is not empty.
			result.Totals.Results = append(result.Totals.Results, verdictErr.Messages...)
		}
		return
	}
	result.Verdict = result.Totals.Escalate()
}

// printResultsTable prints the results of the run to the console.
func (h *harness) printResultsTable(result *RunResult) {
	h.config.Log.Info("Printing results...")
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Quick Test Results (%s)", formatDuration(result.Duration)))

	t.AppendHeader(table.Row{
		"Type", "Name", "Iter", "Tests", "Passed", "Failed", "NA", "Warned", "Verdict",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Type", AutoMerge: true},
		{Name: "Name", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Iter", Align: text.AlignRight},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "NA", Align: text.AlignRight},
		{Name: "Warned", Align: text.AlignRight},
	})

	for _, s := range result.Scopes {
		tests := "-"
		if s.Scope == "batch" {
			tests = fmt.Sprintf("%d", s.Counters.Total())
		}
		t.AppendRow(table.Row{
			s.Scope,
			s.Counters.Name,
			s.Counters.Iteration,
			tests,
			s.Counters.Pass,
			s.Counters.Fail,
			s.Counters.TestNA,
			s.Counters.Warn,
			verdictString(s.Verdict),
		})
	}
	t.AppendSeparator()

	switch result.Verdict {
	case types.VerdictPass:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	case types.VerdictTestNA, types.VerdictWarn:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		"",
		result.Totals.Total(),
		result.Totals.Pass,
		result.Totals.Fail,
		result.Totals.TestNA,
		result.Totals.Warn,
		verdictString(result.Verdict),
	})

	t.Render()
}

// WaitForShutdown blocks until all goroutines have terminated.
// This is useful in tests to ensure complete cleanup before moving to the next test.
func (h *harness) WaitForShutdown(ctx context.Context) error {
	h.config.Log.Debug("Waiting for all goroutines to terminate")

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.config.Log.Debug("All goroutines terminated successfully")
		return nil
	case <-ctx.Done():
		h.config.Log.Warn("Timed out waiting for goroutines to terminate", "error", ctx.Err())
		return ctx.Err()
	}
}
