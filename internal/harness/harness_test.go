package harness

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/contend/internal/kernel"
	"github.com/wesleyorama2/contend/internal/outcome"
)

// stubSpawner hands out units that finish with a scripted error, and
// refuses to spawn failAt. When release is set, every Wait blocks until it
// is closed.
type stubSpawner struct {
	failAt  int
	errs    map[int]error
	release chan struct{}
	spawned []int
	handles map[int]*stubHandle
}

func newStubSpawner() *stubSpawner {
	return &stubSpawner{failAt: -1, errs: map[int]error{}, handles: map[int]*stubHandle{}}
}

func (s *stubSpawner) Model() Model {
	return ModelThread
}

func (s *stubSpawner) Spawn(u Unit) (Handle, error) {
	if u.Ordinal == s.failAt {
		return nil, &SpawnError{Ordinal: u.Ordinal, Model: ModelThread, Err: errors.New("resource temporarily unavailable")}
	}
	s.spawned = append(s.spawned, u.Ordinal)
	h := &stubHandle{
		res:     kernel.Result{Kind: u.Kind, Value: uint64(100 + u.Ordinal)},
		err:     s.errs[u.Ordinal],
		release: s.release,
	}
	s.handles[u.Ordinal] = h
	return h, nil
}

type stubHandle struct {
	res     kernel.Result
	err     error
	release chan struct{}
	waits   atomic.Int32
}

func (h *stubHandle) Wait() (kernel.Result, error) {
	h.waits.Add(1)
	if h.release != nil {
		<-h.release
	}
	return h.res, h.err
}

func cpuPlan(units int) Plan {
	return Plan{Units: units, Kind: kernel.KindCPU, Params: kernel.Params{Iterations: 1000}}
}

func TestHarness_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name  string
		plan  Plan
		field string
	}{
		{name: "zero units", plan: Plan{Units: 0, Kind: kernel.KindCPU, Params: kernel.Params{Iterations: 1}}, field: "units"},
		{name: "negative units", plan: Plan{Units: -2, Kind: kernel.KindCPU, Params: kernel.Params{Iterations: 1}}, field: "units"},
		{name: "unknown kind", plan: Plan{Units: 1, Kind: "gpu", Params: kernel.Params{Iterations: 1}}, field: "kind"},
		{name: "zero iterations", plan: Plan{Units: 1, Kind: kernel.KindCPU}, field: "iterations"},
		{name: "zero working set", plan: Plan{Units: 1, Kind: kernel.KindMemory, Params: kernel.Params{Iterations: 1}}, field: "workingSetMB"},
		{name: "zero payload", plan: Plan{Units: 1, Kind: kernel.KindIO, Params: kernel.Params{Iterations: 1}, PathPrefix: "/tmp/x"}, field: "payloadMB"},
		{name: "missing prefix", plan: Plan{Units: 1, Kind: kernel.KindIO, Params: kernel.Params{Iterations: 1, PayloadMB: 1}}, field: "pathPrefix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spawner := newStubSpawner()
			h := New(spawner, WithLogger(discardLogger()))

			result, err := h.Run(tt.plan)
			require.Error(t, err)
			assert.Nil(t, result)

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "want *ConfigurationError, got %T", err)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Empty(t, spawner.spawned, "no unit may be created for a bad plan")
		})
	}
}

func TestHarness_AllSucceed(t *testing.T) {
	spawner := newStubSpawner()
	h := New(spawner, WithLogger(discardLogger()))

	result, err := h.Run(cpuPlan(4))
	require.NoError(t, err)

	assert.Equal(t, outcome.Success, result.Verdict)
	assert.Equal(t, 4, result.Created)
	assert.Len(t, result.Outcomes, 4)
	assert.Equal(t, []int{0, 1, 2, 3}, spawner.spawned)
	for i, o := range result.Outcomes {
		assert.Equal(t, i, o.Ordinal)
		assert.True(t, o.Success())
		assert.Equal(t, uint64(100+i), o.Value)
	}
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, int64(4), result.Metrics.UnitsSucceeded)
	assert.Zero(t, result.Dropped())
}

func TestHarness_OneKernelError(t *testing.T) {
	spawner := newStubSpawner()
	spawner.errs[1] = &kernel.Error{Kind: kernel.KindIO, Op: kernel.OpWrite, Path: "/tmp/t_1.bin", Err: errors.New("no space left on device")}
	h := New(spawner, WithLogger(discardLogger()))

	result, err := h.Run(cpuPlan(3))
	require.NoError(t, err)

	assert.Equal(t, outcome.Failure, result.Verdict)
	assert.Equal(t, 3, result.Created)
	assert.True(t, result.Outcomes[0].Success())
	assert.Equal(t, outcome.CauseKernelReportedError, result.Outcomes[1].Cause)
	assert.Contains(t, result.Outcomes[1].Error, "no space left on device")
	assert.True(t, result.Outcomes[2].Success(), "a kernel error must not affect siblings")
	assert.Equal(t, 1, result.Counts.Failed)
}

// runBlocked starts h.Run with every stub unit held in Wait, checks that
// Run does not return while they are held, then releases them.
func runBlocked(t *testing.T, h *Harness, spawner *stubSpawner, plan Plan) *Result {
	t.Helper()

	spawner.release = make(chan struct{})
	done := make(chan *Result, 1)
	go func() {
		result, err := h.Run(plan)
		assert.NoError(t, err, "spawn failures are outcomes, not run errors")
		done <- result
	}()

	select {
	case <-done:
		close(spawner.release)
		t.Fatal("Run returned before the created units finished")
	case <-time.After(100 * time.Millisecond):
	}

	close(spawner.release)
	select {
	case result := <-done:
		require.NotNil(t, result)
		return result
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after the units were released")
		return nil
	}
}

func TestHarness_PartialSpawn(t *testing.T) {
	spawner := newStubSpawner()
	spawner.failAt = 2
	h := New(spawner, WithLogger(discardLogger()))

	result := runBlocked(t, h, spawner, cpuPlan(4))

	assert.Equal(t, []int{0, 1}, spawner.spawned, "units after the failed spawn must never be attempted")
	assert.Equal(t, 2, result.Created)
	require.Len(t, result.Outcomes, 3)
	for i := 0; i < 2; i++ {
		assert.Equal(t, int32(1), spawner.handles[i].waits.Load(), "unit %d must be waited on exactly once", i)
		assert.Equal(t, i, result.Outcomes[i].Ordinal)
		assert.Equal(t, uint64(100+i), result.Outcomes[i].Value)
		assert.True(t, result.Outcomes[i].Success())
	}
	assert.Equal(t, 2, result.Outcomes[2].Ordinal)
	assert.Equal(t, outcome.CauseSpawnFailed, result.Outcomes[2].Cause)
	assert.Equal(t, outcome.Failure, result.Verdict)
	assert.Equal(t, 1, result.Dropped())
	assert.Equal(t, int64(2), result.Metrics.UnitsStarted)
	assert.Equal(t, int64(1), result.Metrics.ByCause[outcome.CauseSpawnFailed])
}

func TestHarness_WaitsForEveryUnit(t *testing.T) {
	spawner := newStubSpawner()
	h := New(spawner, WithLogger(discardLogger()))

	result := runBlocked(t, h, spawner, cpuPlan(3))

	assert.Equal(t, outcome.Success, result.Verdict)
	require.Len(t, result.Outcomes, 3)
	for i, o := range result.Outcomes {
		assert.Equal(t, int32(1), spawner.handles[i].waits.Load(), "unit %d", i)
		assert.Equal(t, i, o.Ordinal)
		assert.Equal(t, uint64(100+i), o.Value)
	}
}

func TestHarness_FirstSpawnFails(t *testing.T) {
	spawner := newStubSpawner()
	spawner.failAt = 0
	h := New(spawner, WithLogger(discardLogger()))

	result, err := h.Run(cpuPlan(3))
	require.NoError(t, err)

	assert.Empty(t, spawner.spawned)
	assert.Zero(t, result.Created)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, 0, result.Outcomes[0].Ordinal)
	assert.Equal(t, outcome.CauseSpawnFailed, result.Outcomes[0].Cause)
	assert.Equal(t, outcome.Failure, result.Verdict)
	assert.Equal(t, 2, result.Dropped())
}

func TestHarness_ClassifiesWaitAndTermination(t *testing.T) {
	spawner := newStubSpawner()
	spawner.errs[0] = &WaitError{Ordinal: 0, Err: errors.New("no child processes")}
	spawner.errs[1] = fmt.Errorf("reaping: %w", &TerminationError{Ordinal: 1, PID: 42, Signal: "SIGSEGV"})
	h := New(spawner, WithLogger(discardLogger()))

	result, err := h.Run(cpuPlan(3))
	require.NoError(t, err)

	assert.Equal(t, outcome.CauseWaitFailed, result.Outcomes[0].Cause)
	assert.Equal(t, outcome.CauseAbnormalTermination, result.Outcomes[1].Cause)
	assert.Contains(t, result.Outcomes[1].Error, "SIGSEGV")
	assert.True(t, result.Outcomes[2].Success(), "remaining units are still waited on")
	assert.Equal(t, outcome.Failure, result.Verdict)
}

func TestHarness_Observer(t *testing.T) {
	var mu sync.Mutex
	seen := map[int]outcome.Cause{}

	spawner := newStubSpawner()
	spawner.failAt = 3
	h := New(spawner,
		WithLogger(discardLogger()),
		WithObserver(func(o outcome.Outcome) {
			mu.Lock()
			seen[o.Ordinal] = o.Cause
			mu.Unlock()
		}))

	_, err := h.Run(cpuPlan(5))
	require.NoError(t, err)

	assert.Len(t, seen, 4)
	assert.Equal(t, outcome.CauseSpawnFailed, seen[3])
}

func TestHarness_ThreadCPU(t *testing.T) {
	h := New(NewThreadSpawner(), WithLogger(discardLogger()))

	result, err := h.Run(cpuPlan(3))
	require.NoError(t, err)

	assert.Equal(t, outcome.Success, result.Verdict)
	assert.Equal(t, ModelThread, result.Model)
	want := math.Float64bits(kernel.RunCPU(1000))
	for _, o := range result.Outcomes {
		assert.Equal(t, want, o.Value, "unit %d", o.Ordinal)
		assert.Contains(t, o.Detail, "acc=")
	}
}

func TestHarness_ThreadIO(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "t")
	h := New(NewThreadSpawner(), WithLogger(discardLogger()))

	result, err := h.Run(Plan{
		Units:      2,
		Kind:       kernel.KindIO,
		Params:     kernel.Params{Iterations: 2, PayloadMB: 1},
		PathPrefix: prefix,
	})
	require.NoError(t, err)

	assert.Equal(t, outcome.Success, result.Verdict)
	for i, o := range result.Outcomes {
		assert.Equal(t, kernel.ExpectedIOChecksum(2, 1), o.Value)
		_, statErr := os.Stat(UnitPath(prefix, i))
		assert.True(t, os.IsNotExist(statErr), "unit file %d should be removed", i)
	}
}

func TestHarness_ThreadMemoryAllocationFailure(t *testing.T) {
	h := New(NewThreadSpawner(), WithLogger(discardLogger()))

	result, err := h.Run(Plan{
		Units:  2,
		Kind:   kernel.KindMemory,
		Params: kernel.Params{Iterations: 1, WorkingSetMB: 1 << 40},
	})
	require.NoError(t, err)

	assert.Equal(t, outcome.Failure, result.Verdict)
	for _, o := range result.Outcomes {
		assert.Equal(t, outcome.CauseKernelReportedError, o.Cause)
		assert.Contains(t, o.Error, "alloc")
	}
}

func TestPlan_Unit(t *testing.T) {
	plan := Plan{
		Units:      3,
		Kind:       kernel.KindIO,
		Params:     kernel.Params{Iterations: 2, PayloadMB: 1, Path: "ignored"},
		PathPrefix: "/tmp/t",
	}

	paths := map[string]bool{}
	for i := 0; i < plan.Units; i++ {
		u := plan.Unit(i)
		assert.Equal(t, i, u.Ordinal)
		assert.Equal(t, uint64(2), u.Params.Iterations)
		paths[u.Params.Path] = true
	}
	assert.Len(t, paths, 3, "io units must never share a file")
	assert.Equal(t, "/tmp/t_0.bin", plan.Unit(0).Params.Path)

	cpu := cpuPlan(1).Unit(0)
	assert.Empty(t, cpu.Params.Path)
}

func TestParseModel(t *testing.T) {
	m, err := ParseModel("process")
	require.NoError(t, err)
	assert.Equal(t, ModelProcess, m)

	m, err = ParseModel("thread")
	require.NoError(t, err)
	assert.Equal(t, ModelThread, m)

	_, err = ParseModel("fiber")
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestNewSpawner(t *testing.T) {
	s, err := NewSpawner(ModelThread, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, ModelThread, s.Model())

	s, err = NewSpawner(ModelProcess, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, ModelProcess, s.Model())

	_, err = NewSpawner("fiber", discardLogger())
	assert.Error(t, err)
}
