package quicktest

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/hwlab/quicktest/flags"
)

// Config holds the application configuration
type Config struct {
	PlanFile    string        // Path to the yaml plan file
	Package     string        // Package from the plan to run
	Batch       string        // Single batch to run instead of a package
	Test        string        // Single test to run as a standalone diagnostic
	RunFlag     string        // Applicability tag for this run
	Iterations  int           // Iteration override for the selected scope
	RunInterval time.Duration // Interval between runs
	RunOnce     bool          // Indicates if the service should exit after one run
	LogDir      string        // Directory to store run logs
	Log         log.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, logger log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	planFile := ctx.String(flags.Plan.Name)
	if planFile == "" {
		return nil, errors.New("plan file is required")
	}
	absPlanFile, err := filepath.Abs(planFile)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for plan file '%s': %w", planFile, err)
	}

	logDir := ctx.String(flags.LogDir.Name)
	if logDir == "" {
		logDir = "logs"
	}
	logDir, err = filepath.Abs(logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", logDir, err)
	}

	pkg := ctx.String(flags.Package.Name)
	batch := ctx.String(flags.Batch.Name)
	test := ctx.String(flags.Test.Name)
	selectors := 0
	for _, s := range []string{pkg, batch, test} {
		if s != "" {
			selectors++
		}
	}
	if selectors > 1 {
		return nil, errors.New("at most one of --package, --batch and --test may be set")
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	runOnce := runInterval == 0

	return &Config{
		PlanFile:    absPlanFile,
		Package:     pkg,
		Batch:       batch,
		Test:        test,
		RunFlag:     ctx.String(flags.RunFlag.Name),
		Iterations:  ctx.Int(flags.Iterations.Name),
		RunInterval: runInterval,
		RunOnce:     runOnce,
		LogDir:      logDir,
		Log:         logger,
	}, nil
}
