package registry

import (
	"fmt"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"

	"github.com/hwlab/quicktest/runner"
	"github.com/hwlab/quicktest/types"
)

// Entry is one test procedure registered in code. The plan file references
// entries by name; hooks and runnable checks can only be attached here, not
// in the plan.
type Entry struct {
	Name       string
	Proc       types.TestProcedure
	PreHook    types.Hook
	PostHook   types.Hook
	IsRunnable func(tc *types.TestContext) bool
}

// Registry binds registered test procedures to the plan that drives a run.
type Registry struct {
	config  Config
	plan    *types.PlanConfig
	entries map[string]Entry
	mu      sync.RWMutex
}

// Config contains registry configuration
type Config struct {
	Log log.Logger

	// PlanFile is the path of the yaml plan declaring batches and packages.
	PlanFile string
}

// NewRegistry creates a new registry instance and loads the plan file.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.PlanFile == "" {
		return nil, fmt.Errorf("plan file is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}

	r := &Registry{
		config:  cfg,
		entries: make(map[string]Entry),
	}

	if err := r.loadPlan(cfg.PlanFile); err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	cfg.Log.Debug("Registry loaded",
		"batches", len(r.plan.Batches),
		"packages", len(r.plan.Packages))

	return r, nil
}

// Register adds one test procedure. Registering the same name twice or an
// entry without a procedure is a programmer error.
func (r *Registry) Register(e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.Name == "" {
		return fmt.Errorf("entry name is required")
	}
	if e.Proc == nil {
		return fmt.Errorf("entry %q has no procedure", e.Name)
	}
	if _, exists := r.entries[e.Name]; exists {
		return fmt.Errorf("test %q is already registered", e.Name)
	}
	r.entries[e.Name] = e
	return nil
}

// Plan returns the loaded plan.
func (r *Registry) Plan() *types.PlanConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.plan
}

// Batch returns the batch config with the given name.
func (r *Registry) Batch(name string) (types.BatchConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.plan.Batches {
		if b.Name == name {
			return b, nil
		}
	}
	return types.BatchConfig{}, fmt.Errorf("batch %q not found in plan", name)
}

// Resolve binds one plan test config to its registered procedure.
func (r *Registry) Resolve(cfg types.TestConfig) (runner.RegisteredTest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(cfg)
}

func (r *Registry) resolveLocked(cfg types.TestConfig) (runner.RegisteredTest, error) {
	entry, ok := r.entries[cfg.Name]
	if !ok {
		return runner.RegisteredTest{}, fmt.Errorf("test %q is not registered", cfg.Name)
	}
	opts := runner.OptionsFromConfig(cfg)
	opts.PreHook = entry.PreHook
	opts.PostHook = entry.PostHook
	opts.IsRunnable = entry.IsRunnable
	return runner.RegisteredTest{Proc: entry.Proc, Options: opts}, nil
}

// Test resolves a registered test by name for ad-hoc single-test runs. The
// first plan occurrence supplies the options; a test absent from the plan
// runs with defaults. Test implements runner.TestSource.
func (r *Registry) Test(name string) (runner.RegisteredTest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.plan.Batches {
		for _, t := range b.Tests {
			if t.Name == name {
				return r.resolveLocked(t)
			}
		}
	}
	return r.resolveLocked(types.TestConfig{Name: name})
}

// loadPlan loads and validates the yaml plan file.
func (r *Registry) loadPlan(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	plan, err := loadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := validatePlan(plan); err != nil {
		return fmt.Errorf("invalid plan: %w", err)
	}

	r.plan = plan
	return nil
}

// loadConfig loads a plan config from a file
func loadConfig(path string) (*types.PlanConfig, error) {
	log.Debug("Reading plan config file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg types.PlanConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

func validatePlan(plan *types.PlanConfig) error {
	batches := make(map[string]bool)
	for _, b := range plan.Batches {
		if b.Name == "" {
			return fmt.Errorf("batch without a name")
		}
		if batches[b.Name] {
			return fmt.Errorf("duplicate batch %q", b.Name)
		}
		batches[b.Name] = true

		if len(b.Tests) == 0 {
			return fmt.Errorf("batch %q has no tests", b.Name)
		}
		for _, t := range b.Tests {
			if t.Name == "" {
				return fmt.Errorf("batch %q has a test without a name", b.Name)
			}
		}
	}

	packages := make(map[string]bool)
	for _, p := range plan.Packages {
		if p.Name == "" {
			return fmt.Errorf("package without a name")
		}
		if packages[p.Name] {
			return fmt.Errorf("duplicate package %q", p.Name)
		}
		packages[p.Name] = true

		if len(p.Batches) == 0 {
			return fmt.Errorf("package %q has no batches", p.Name)
		}
		for _, name := range p.Batches {
			if !batches[name] {
				return fmt.Errorf("package %q references unknown batch %q", p.Name, name)
			}
		}
	}
	return nil
}

// Verify checks that every test the plan references has a registered
// procedure. Called after the embedder finished registering.
func (r *Registry) Verify() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.plan.Batches {
		for _, t := range b.Tests {
			if _, ok := r.entries[t.Name]; !ok {
				return fmt.Errorf("batch %q references unregistered test %q", b.Name, t.Name)
			}
		}
	}
	return nil
}

// GetConfig returns the registry configuration
func (r *Registry) GetConfig() Config {
	return r.config
}
