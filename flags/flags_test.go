package flags

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// TestUniqueFlagNames checks that no flag names collide.
func TestUniqueFlagNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, flag := range Flags {
		for _, name := range flag.Names() {
			if seen[name] {
				t.Errorf("duplicate flag name %s", name)
			}
			seen[name] = true
		}
	}
}

func TestFlagsHaveEnvVars(t *testing.T) {
	for _, flag := range Flags {
		var envVars []string
		switch f := flag.(type) {
		case *cli.StringFlag:
			envVars = f.EnvVars
		case *cli.IntFlag:
			envVars = f.EnvVars
		case *cli.DurationFlag:
			envVars = f.EnvVars
		default:
			t.Fatalf("unhandled flag type %T", flag)
		}

		require.NotEmpty(t, envVars, "flag %s has no env vars", flag.Names()[0])
		for _, v := range envVars {
			require.True(t, strings.HasPrefix(v, EnvVarPrefix+"_"),
				"flag %s env var %s does not use the %s prefix", flag.Names()[0], v, EnvVarPrefix)
		}
	}
}
