package harness

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/contend/internal/kernel"
	"github.com/wesleyorama2/contend/internal/outcome"
)

func TestProcessSpawner_CPU(t *testing.T) {
	h := New(helperSpawner(t), WithLogger(discardLogger()))

	result, err := h.Run(cpuPlan(3))
	require.NoError(t, err)

	assert.Equal(t, outcome.Success, result.Verdict)
	assert.Equal(t, ModelProcess, result.Model)

	// A child computes exactly what a thread computes.
	want := math.Float64bits(kernel.RunCPU(1000))
	pids := map[int]bool{}
	for _, o := range result.Outcomes {
		assert.Equal(t, want, o.Value, "unit %d", o.Ordinal)
		assert.NotZero(t, o.PID)
		assert.NotEqual(t, os.Getpid(), o.PID)
		pids[o.PID] = true
	}
	assert.Len(t, pids, 3, "every unit runs in its own process")
}

func TestProcessSpawner_IO(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "t")
	h := New(helperSpawner(t), WithLogger(discardLogger()))

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
		assert.True(t, os.IsNotExist(statErr))
	}
}

func TestProcessSpawner_KernelError(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "missing", "t")
	h := New(helperSpawner(t), WithLogger(discardLogger()))

	result, err := h.Run(Plan{
		Units:      2,
		Kind:       kernel.KindIO,
		Params:     kernel.Params{Iterations: 1, PayloadMB: 1},
		PathPrefix: prefix,
	})
	require.NoError(t, err)

	assert.Equal(t, outcome.Failure, result.Verdict)
	for _, o := range result.Outcomes {
		assert.Equal(t, outcome.CauseKernelReportedError, o.Cause)
		assert.Contains(t, o.Error, "open")
	}
}

func TestProcessSpawner_KilledUnit(t *testing.T) {
	h := New(helperSpawner(t, helperCrashEnv+"=1"), WithLogger(discardLogger()))

	result, err := h.Run(cpuPlan(3))
	require.NoError(t, err)

	assert.Equal(t, outcome.Failure, result.Verdict)
	assert.True(t, result.Outcomes[0].Success())
	assert.Equal(t, outcome.CauseAbnormalTermination, result.Outcomes[1].Cause)
	assert.True(t, result.Outcomes[2].Success(), "a crashed process must not affect siblings")
	if runtime.GOOS != "windows" {
		assert.Contains(t, result.Outcomes[1].Error, "SIGKILL")
	}
}

func TestProcessSpawner_UnexpectedExitStatus(t *testing.T) {
	// 2 is what the Go runtime exits with on a fatal error, e.g. out of memory.
	for _, status := range []int{2, 7} {
		t.Run(strconv.Itoa(status), func(t *testing.T) {
			spawner := helperSpawner(t, helperExitEnv+"="+strconv.Itoa(status))

			handle, err := spawner.Spawn(cpuPlan(1).Unit(0))
			require.NoError(t, err)

			_, err = handle.Wait()
			var term *TerminationError
			require.True(t, errors.As(err, &term), "want *TerminationError, got %T: %v", err, err)
			assert.Equal(t, status, term.ExitCode)
			assert.Empty(t, term.Signal)
			assert.Contains(t, term.Error(), "exited with status "+strconv.Itoa(status))
		})
	}
}

func TestProcessSpawner_MissingReport(t *testing.T) {
	spawner := helperSpawner(t, helperMuteEnv+"=1")

	handle, err := spawner.Spawn(cpuPlan(1).Unit(0))
	require.NoError(t, err)

	_, err = handle.Wait()
	var waitErr *WaitError
	require.True(t, errors.As(err, &waitErr), "want *WaitError, got %T: %v", err, err)
	assert.NotZero(t, waitErr.PID)
}

func TestProcessSpawner_ReportForAnotherUnit(t *testing.T) {
	tests := []struct {
		name string
		unit Unit
	}{
		{name: "success", unit: cpuPlan(1).Unit(0)},
		{
			name: "kernel error",
			unit: Plan{
				Units:  1,
				Kind:   kernel.KindMemory,
				Params: kernel.Params{Iterations: 1, WorkingSetMB: 1 << 40},
			}.Unit(0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spawner := helperSpawner(t, helperOrdinalEnv+"=9")

			handle, err := spawner.Spawn(tt.unit)
			require.NoError(t, err)

			_, err = handle.Wait()
			var waitErr *WaitError
			require.True(t, errors.As(err, &waitErr), "want *WaitError, got %T: %v", err, err)
			assert.Equal(t, 0, waitErr.Ordinal)
			assert.Contains(t, err.Error(), "report is for unit 9")
		})
	}
}

func TestProcessSpawner_SpawnFailure(t *testing.T) {
	spawner := &ProcessSpawner{
		Executable: filepath.Join(t.TempDir(), "no-such-binary"),
		Args:       []string{"unit"},
		Logger:     discardLogger(),
	}
	h := New(spawner, WithLogger(discardLogger()))

	result, err := h.Run(cpuPlan(3))
	require.NoError(t, err)

	assert.Zero(t, result.Created)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, outcome.CauseSpawnFailed, result.Outcomes[0].Cause)
	assert.Equal(t, outcome.Failure, result.Verdict)
}
