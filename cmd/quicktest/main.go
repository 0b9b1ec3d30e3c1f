package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	quicktest "github.com/hwlab/quicktest"
	"github.com/hwlab/quicktest/flags"
	"github.com/hwlab/quicktest/registry"
	"github.com/hwlab/quicktest/runner"
	"github.com/hwlab/quicktest/service"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

// procedures holds the test entries linked into this binary. Deployments
// register their hardware checks from an init() in their own package and add
// them here (or embed the quicktest package directly).
var procedures []registry.Entry

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "quicktest"
	app.Usage = "Hardware Quick Test Harness"
	app.Description = "quicktest runs batched hardware-validation checks and aggregates their verdicts"
	app.Flags = flags.Flags
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			if quicktest.IsRuntimeError(err) {
				// For runtime errors, use exit code 2
				cli.HandleExitCoder(cli.Exit(err.Error(), 2))
			} else if quicktest.IsTestFailureError(err) {
				// For non-PASS run verdicts, use exit code 1
				cli.HandleExitCoder(cli.Exit(err.Error(), 1))
			} else {
				cli.HandleExitCoder(cli.Exit(err.Error(), 1))
			}
		}
	}

	// Start telemetry
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer otelShutdown()

	// Start server
	svc := service.New(app.Version)
	svc.Start(context.Background())
	defer svc.Shutdown()
	app.Action = func(ctx *cli.Context) error {
		return run(ctx, svc)
	}

	// Start CLI
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(ctx *cli.Context, svc *service.Service) error {
	logger, err := newLogger(ctx)
	if err != nil {
		return quicktest.NewRuntimeError(err)
	}

	cfg, err := quicktest.NewConfig(ctx, logger)
	if err != nil {
		return quicktest.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}
	cfg.Log.Debug("Config", "config", cfg)

	device := runner.StaticDeviceInfo{
		Model:   ctx.String(flags.Model.Name),
		Chipset: ctx.String(flags.Chipset.Name),
	}

	appCtx, cancel := context.WithCancelCause(ctx.Context)
	defer cancel(nil)

	h, err := quicktest.New(appCtx, cfg, Version, device, procedures, func(err error) {
		cancel(err)
	})
	if err != nil {
		return quicktest.NewRuntimeError(fmt.Errorf("failed to create quicktest: %w", err))
	}
	svc.SetStatusProvider(func() service.RunState {
		state := service.RunState{Running: !h.Stopped()}
		if result := h.Result(); result != nil {
			state.LastRunID = result.RunID
			state.LastVerdict = string(result.Verdict)
		}
		return state
	})

	if err := h.Start(appCtx); err != nil {
		return err
	}

	<-appCtx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := h.Stop(stopCtx); err != nil {
		logger.Error("Failed to stop cleanly", "error", err)
	}

	if cause := context.Cause(appCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

func newLogger(ctx *cli.Context) (log.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(ctx.String(flags.LogLevel.Name)) {
	case "trace":
		lvl = log.LevelTrace
	case "debug":
		lvl = log.LevelDebug
	case "info":
		lvl = log.LevelInfo
	case "warn":
		lvl = log.LevelWarn
	case "error":
		lvl = log.LevelError
	case "crit":
		lvl = log.LevelCrit
	default:
		return nil, fmt.Errorf("invalid log level %q", ctx.String(flags.LogLevel.Name))
	}
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, lvl, true)
	logger := log.NewLogger(handler)
	log.SetDefault(logger)
	return logger, nil
}
