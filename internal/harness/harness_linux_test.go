//go:build linux

package harness

import (
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/wesleyorama2/contend/internal/kernel"
	"github.com/wesleyorama2/contend/internal/outcome"
)

func virtualSize(t *testing.T) uint64 {
	t.Helper()

	data, err := os.ReadFile("/proc/self/statm")
	if err != nil {
		t.Skip("/proc/self/statm is not readable")
	}
	pages, err := strconv.ParseUint(strings.Fields(string(data))[0], 10, 64)
	require.NoError(t, err)
	return pages * uint64(os.Getpagesize())
}

func TestHarness_ThreadMemoryOverAddressSpaceLimit(t *testing.T) {
	var old unix.Rlimit
	require.NoError(t, unix.Getrlimit(unix.RLIMIT_AS, &old))
	limit := virtualSize(t) + 512*kernel.MiB
	if old.Cur < limit {
		limit = old.Cur
	}
	require.NoError(t, unix.Setrlimit(unix.RLIMIT_AS, &unix.Rlimit{Cur: limit, Max: old.Max}))
	t.Cleanup(func() {
		unix.Setrlimit(unix.RLIMIT_AS, &old)
	})

	h := New(NewThreadSpawner(), WithLogger(discardLogger()))
	result, err := h.Run(Plan{
		Units:  2,
		Kind:   kernel.KindMemory,
		Params: kernel.Params{Iterations: 1, WorkingSetMB: limit/kernel.MiB + 1},
	})
	require.NoError(t, err)

	assert.Equal(t, outcome.Failure, result.Verdict)
	require.Len(t, result.Outcomes, 2)
	for _, o := range result.Outcomes {
		assert.Equal(t, outcome.CauseKernelReportedError, o.Cause, "unit %d", o.Ordinal)
		assert.Contains(t, o.Error, "alloc")
		assert.Contains(t, o.Error, "address space limit")
	}
}
