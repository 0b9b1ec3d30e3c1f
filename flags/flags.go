package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "QUICKTEST"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Plan = &cli.StringFlag{
		Name:     "plan",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVars("PLAN"),
		Usage:    "Path to plan config file (eg. 'plan.yaml')",
	}
	Package = &cli.StringFlag{
		Name:    "package",
		Value:   "",
		EnvVars: prefixEnvVars("PACKAGE"),
		Usage:   "Package from the plan to run (eg. 'health')",
	}
	Batch = &cli.StringFlag{
		Name:    "batch",
		Value:   "",
		EnvVars: prefixEnvVars("BATCH"),
		Usage:   "Single batch from the plan to run instead of a package",
	}
	Test = &cli.StringFlag{
		Name:    "test",
		Value:   "",
		EnvVars: prefixEnvVars("TEST"),
		Usage:   "Single test to run repeatedly as a standalone diagnostic",
	}
	RunFlag = &cli.StringFlag{
		Name:    "flag",
		Value:   "all",
		EnvVars: prefixEnvVars("FLAG"),
		Usage:   "Applicability tag for this run (eg. 'minimal', 'full', 'all')",
	}
	Iterations = &cli.IntFlag{
		Name:    "iterations",
		Value:   1,
		EnvVars: prefixEnvVars("ITERATIONS"),
		Usage:   "Number of iterations of the selected package, batch or test",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: prefixEnvVars("RUN_INTERVAL"),
		Usage:   "Interval between runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "logs",
		EnvVars: prefixEnvVars("LOGDIR"),
		Usage:   "Directory to store run logs",
	}
	Model = &cli.StringFlag{
		Name:    "model",
		Value:   "",
		EnvVars: prefixEnvVars("MODEL"),
		Usage:   "Model name reported to denylist/forced-list matching when no live device daemon is attached",
	}
	Chipset = &cli.StringFlag{
		Name:    "chipset",
		Value:   "",
		EnvVars: prefixEnvVars("CHIPSET"),
		Usage:   "Chipset name reported to denylist matching when no live device daemon is attached",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
		Usage:   "The lowest log level that will be output (trace|debug|info|warn|error|crit)",
	}
)

var requiredFlags = []cli.Flag{
	Plan,
}

var optionalFlags = []cli.Flag{
	Package,
	Batch,
	Test,
	RunFlag,
	Iterations,
	RunInterval,
	LogDir,
	Model,
	Chipset,
	LogLevel,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
