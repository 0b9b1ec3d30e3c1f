package types

// PlanConfig is the root of a plan file. A plan declares batches of tests and
// optionally packages composed of those batches.
type PlanConfig struct {
	Packages []PackageConfig `yaml:"packages,omitempty"`
	Batches  []BatchConfig   `yaml:"batches"`
}

// PackageConfig groups a set of batches into one package scope.
type PackageConfig struct {
	Name       string   `yaml:"name"`
	Iterations int      `yaml:"iterations,omitempty"`
	Batches    []string `yaml:"batches"`
}

// BatchConfig groups a set of tests into one batch scope.
type BatchConfig struct {
	Name       string       `yaml:"name"`
	Iterations int          `yaml:"iterations,omitempty"`
	Tests      []TestConfig `yaml:"tests"`
}

// TestConfig describes how one registered test should be run.
type TestConfig struct {
	// Name references a procedure registered with the registry.
	Name string `yaml:"name"`

	// Flags lists the run flags under which this test is applicable. The
	// wildcard "all" (or an empty list) makes the test applicable everywhere.
	Flags []string `yaml:"flags,omitempty"`

	// ModelDenylist and ChipsetDenylist make the test TESTNA on matching
	// hardware without running the body.
	ModelDenylist   []string `yaml:"model_denylist,omitempty"`
	ChipsetDenylist []string `yaml:"chipset_denylist,omitempty"`

	// ForcedNAModels and ForcedWarnModels reinterpret any failure on matching
	// models as TESTNA or WARN instead of FAIL.
	ForcedNAModels   []string `yaml:"forced_na_models,omitempty"`
	ForcedWarnModels []string `yaml:"forced_warn_models,omitempty"`

	// SuppressKnownCommonFaults marks failures the body flagged as known
	// common faults as TESTNA. Use sparingly, it may mask bugs.
	SuppressKnownCommonFaults bool `yaml:"suppress_known_common_faults,omitempty"`
}
