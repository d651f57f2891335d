package harness

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/contend/internal/kernel"
)

func TestUnitArgs_RoundTrip(t *testing.T) {
	u := Unit{
		Ordinal: 7,
		Kind:    kernel.KindIO,
		Params:  kernel.Params{Iterations: 12, PayloadMB: 3, Path: "/tmp/with space_7.bin"},
	}

	got, err := ParseUnitArgs(UnitArgs(u))
	require.NoError(t, err)
	assert.Equal(t, u, got)
}

func TestParseUnitArgs_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing ordinal", args: []string{"--kind", "cpu", "--iterations", "1"}},
		{name: "unknown kind", args: []string{"--ordinal", "0", "--kind", "gpu"}},
		{name: "unknown flag", args: []string{"--ordinal", "0", "--kind", "cpu", "--threads", "4"}},
		{name: "stray argument", args: []string{"--ordinal", "0", "--kind", "cpu", "extra"}},
		{name: "bad number", args: []string{"--ordinal", "0", "--kind", "cpu", "--iterations", "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseUnitArgs(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestServeUnit_Success(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := ServeUnit(UnitArgs(Unit{Ordinal: 2, Kind: kernel.KindCPU, Params: kernel.Params{Iterations: 50}}), &stdout, &stderr)
	require.Equal(t, ExitOK, code, stderr.String())

	line := strings.TrimSpace(stdout.String())
	assert.True(t, gjson.Valid(line))
	assert.Equal(t, int64(2), gjson.Get(line, "ordinal").Int())
	assert.False(t, gjson.Get(line, "error").Exists())

	rep, err := decodeReport(stdout.Bytes())
	require.NoError(t, err)
	assert.Equal(t, kernel.RunCPU(50), rep.result().Float())
	assert.NoError(t, rep.err())
}

func TestServeUnit_KernelError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	path := filepath.Join(t.TempDir(), "missing", "u_0.bin")

	code := ServeUnit(UnitArgs(Unit{Ordinal: 0, Kind: kernel.KindIO, Params: kernel.Params{Iterations: 1, PayloadMB: 1, Path: path}}), &stdout, &stderr)
	require.Equal(t, ExitKernelError, code)

	rep, err := decodeReport(stdout.Bytes())
	require.NoError(t, err)
	require.NotNil(t, rep.Error)
	assert.Equal(t, kernel.OpOpen, rep.Error.Op)
	assert.Equal(t, path, rep.Error.Path)

	var kerr *kernel.Error
	require.True(t, errors.As(rep.err(), &kerr))
	assert.Equal(t, kernel.KindIO, kerr.Kind)
	assert.Equal(t, kernel.OpOpen, kerr.Op)
}

func TestServeUnit_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := ServeUnit([]string{"--kind", "cpu"}, &stdout, &stderr)
	assert.Equal(t, ExitUsage, code)
	assert.NotEqual(t, 2, code, "status 2 belongs to Go runtime fatal errors")
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "--ordinal")
}

func TestDecodeReport(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		ordinal int
		value   uint64
		wantErr bool
	}{
		{name: "single line", out: `{"ordinal":1,"kind":"mem","value":"42"}` + "\n", ordinal: 1, value: 42},
		{name: "last line wins", out: "noise\n" + `{"ordinal":3,"kind":"io","value":"9"}`, ordinal: 3, value: 9},
		{name: "max uint64", out: `{"ordinal":0,"kind":"cpu","value":"18446744073709551615"}`, value: 1<<64 - 1},
		{name: "empty", out: "", wantErr: true},
		{name: "malformed", out: `{"ordinal":`, wantErr: true},
		{name: "no ordinal", out: `{"kind":"cpu"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := decodeReport([]byte(tt.out))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ordinal, rep.Ordinal)
			assert.Equal(t, tt.value, rep.Value)
		})
	}
}
