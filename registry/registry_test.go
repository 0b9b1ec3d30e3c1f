package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hwlab/quicktest/types"
)

const validPlan = `
batches:
  - name: basic
    iterations: 2
    tests:
      - name: power-on
        flags: [minimal, full]
      - name: pairing
        model_denylist: [oldmodel]
        suppress_known_common_faults: true
  - name: audio
    tests:
      - name: playback
        forced_warn_models: [quirky]
packages:
  - name: health
    iterations: 3
    batches: [basic, audio]
`

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestRegistry(t *testing.T, plan string) *Registry {
	t.Helper()
	r, err := NewRegistry(Config{PlanFile: writePlan(t, plan)})
	require.NoError(t, err)
	return r
}

func noopProc(tc *types.TestContext) error { return nil }

func TestNewRegistryLoadsPlan(t *testing.T) {
	r := newTestRegistry(t, validPlan)

	plan := r.Plan()
	require.Len(t, plan.Batches, 2)
	require.Len(t, plan.Packages, 1)
	assert.Equal(t, "health", plan.Packages[0].Name)
	assert.Equal(t, 3, plan.Packages[0].Iterations)

	b, err := r.Batch("basic")
	require.NoError(t, err)
	assert.Equal(t, 2, b.Iterations)
	require.Len(t, b.Tests, 2)
	assert.Equal(t, []string{"minimal", "full"}, b.Tests[0].Flags)
	assert.True(t, b.Tests[1].SuppressKnownCommonFaults)
}

func TestNewRegistryRequiresPlanFile(t *testing.T) {
	_, err := NewRegistry(Config{})
	require.Error(t, err)

	_, err = NewRegistry(Config{PlanFile: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
}

func TestNewRegistryRejectsMalformedYaml(t *testing.T) {
	_, err := NewRegistry(Config{PlanFile: writePlan(t, "batches: [not: valid")})
	require.Error(t, err)
}

func TestNewRegistryValidatesPlan(t *testing.T) {
	tests := []struct {
		name    string
		plan    string
		wantErr string
	}{
		{
			name: "duplicate batch",
			plan: `
batches:
  - name: basic
    tests: [{name: a}]
  - name: basic
    tests: [{name: b}]
`,
			wantErr: "duplicate batch",
		},
		{
			name: "empty batch",
			plan: `
batches:
  - name: basic
    tests: []
`,
			wantErr: "has no tests",
		},
		{
			name: "unnamed test",
			plan: `
batches:
  - name: basic
    tests: [{flags: [all]}]
`,
			wantErr: "test without a name",
		},
		{
			name: "duplicate package",
			plan: `
batches:
  - name: basic
    tests: [{name: a}]
packages:
  - name: health
    batches: [basic]
  - name: health
    batches: [basic]
`,
			wantErr: "duplicate package",
		},
		{
			name: "unknown batch reference",
			plan: `
batches:
  - name: basic
    tests: [{name: a}]
packages:
  - name: health
    batches: [nonexistent]
`,
			wantErr: "unknown batch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(Config{PlanFile: writePlan(t, tt.plan)})
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRegisterRejectsBadEntries(t *testing.T) {
	r := newTestRegistry(t, validPlan)

	require.Error(t, r.Register(Entry{Proc: noopProc}))
	require.Error(t, r.Register(Entry{Name: "no-proc"}))

	require.NoError(t, r.Register(Entry{Name: "power-on", Proc: noopProc}))
	err := r.Register(Entry{Name: "power-on", Proc: noopProc})
	require.Error(t, err)
	assert.ErrorContains(t, err, "already registered")
}

func TestResolveAttachesHooks(t *testing.T) {
	r := newTestRegistry(t, validPlan)
	preHook := func(tc *types.TestContext) error { return nil }
	require.NoError(t, r.Register(Entry{Name: "pairing", Proc: noopProc, PreHook: preHook}))

	b, err := r.Batch("basic")
	require.NoError(t, err)

	rt, err := r.Resolve(b.Tests[1])
	require.NoError(t, err)
	assert.NotNil(t, rt.Proc)
	assert.NotNil(t, rt.Options.PreHook)
	assert.Equal(t, []string{"oldmodel"}, rt.Options.ModelDenylist)
	assert.True(t, rt.Options.SuppressKnownCommonFaults)
}

func TestResolveUnregisteredTest(t *testing.T) {
	r := newTestRegistry(t, validPlan)
	_, err := r.Resolve(types.TestConfig{Name: "power-on"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "not registered")
}

func TestTestUsesFirstPlanOccurrence(t *testing.T) {
	r := newTestRegistry(t, validPlan)
	require.NoError(t, r.Register(Entry{Name: "playback", Proc: noopProc}))

	rt, err := r.Test("playback")
	require.NoError(t, err)
	assert.Equal(t, []string{"quirky"}, rt.Options.ForcedWarnModels)
}

func TestTestFallsBackToDefaults(t *testing.T) {
	r := newTestRegistry(t, validPlan)
	require.NoError(t, r.Register(Entry{Name: "ad-hoc", Proc: noopProc}))

	// Registered but absent from the plan: runs with default options.
	rt, err := r.Test("ad-hoc")
	require.NoError(t, err)
	assert.Equal(t, "ad-hoc", rt.Options.Name)
	assert.Empty(t, rt.Options.Flags)
}

func TestVerify(t *testing.T) {
	r := newTestRegistry(t, validPlan)
	require.NoError(t, r.Register(Entry{Name: "power-on", Proc: noopProc}))
	require.NoError(t, r.Register(Entry{Name: "pairing", Proc: noopProc}))

	err := r.Verify()
	require.Error(t, err)
	assert.ErrorContains(t, err, "playback")

	require.NoError(t, r.Register(Entry{Name: "playback", Proc: noopProc}))
	require.NoError(t, r.Verify())
}
