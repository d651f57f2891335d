package harness

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/pflag"
	"github.com/tidwall/gjson"

	"github.com/wesleyorama2/contend/internal/kernel"
)

// Exit statuses of a unit child process. Any other status, or death by a
// signal, is an abnormal termination. ExitUsage is EX_USAGE from sysexits
// so that it stays distinct from status 2, which the Go runtime exits with
// on a fatal error such as running out of memory.
const (
	ExitOK          = 0
	ExitUsage       = 64
	ExitKernelError = 3
)

// UnitArgs encodes a unit as command line flags for the unit subcommand.
func UnitArgs(u Unit) []string {
	args := []string{
		"--ordinal", strconv.Itoa(u.Ordinal),
		"--kind", string(u.Kind),
		"--iterations", strconv.FormatUint(u.Params.Iterations, 10),
	}
	if u.Params.WorkingSetMB > 0 {
		args = append(args, "--mem-mb", strconv.FormatUint(u.Params.WorkingSetMB, 10))
	}
	if u.Params.PayloadMB > 0 {
		args = append(args, "--payload-mb", strconv.FormatUint(u.Params.PayloadMB, 10))
	}
	if u.Params.Path != "" {
		args = append(args, "--path", u.Params.Path)
	}
	return args
}

// ParseUnitArgs decodes the flags produced by UnitArgs.
func ParseUnitArgs(args []string) (Unit, error) {
	fs := pflag.NewFlagSet("unit", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	ordinal := fs.Int("ordinal", -1, "unit ordinal")
	kind := fs.String("kind", "", "kernel kind")
	iterations := fs.Uint64("iterations", 0, "kernel iterations")
	memMB := fs.Uint64("mem-mb", 0, "mem kernel working set in MiB")
	payloadMB := fs.Uint64("payload-mb", 0, "io kernel payload in MiB")
	path := fs.String("path", "", "io kernel target file")

	if err := fs.Parse(args); err != nil {
		return Unit{}, fmt.Errorf("invalid unit arguments: %w", err)
	}
	if fs.NArg() > 0 {
		return Unit{}, fmt.Errorf("unexpected unit arguments: %v", fs.Args())
	}
	if *ordinal < 0 {
		return Unit{}, fmt.Errorf("--ordinal is required")
	}
	k, err := kernel.ParseKind(*kind)
	if err != nil {
		return Unit{}, err
	}

	return Unit{
		Ordinal: *ordinal,
		Kind:    k,
		Params: kernel.Params{
			Iterations:   *iterations,
			WorkingSetMB: *memMB,
			PayloadMB:    *payloadMB,
			Path:         *path,
		},
	}, nil
}

// unitReport is the single JSON line a unit child writes on stdout.
type unitReport struct {
	Ordinal int          `json:"ordinal"`
	Kind    kernel.Kind  `json:"kind"`
	Value   uint64       `json:"value,string"`
	Bytes   uint64       `json:"bytes,omitempty"`
	Error   *reportError `json:"error,omitempty"`
}

type reportError struct {
	Op      kernel.Op `json:"op,omitempty"`
	Path    string    `json:"path,omitempty"`
	Message string    `json:"message"`
}

// ServeUnit is the body of a unit child process. It decodes the unit from
// args, runs its kernel, writes the report to stdout and returns the exit
// status the process should end with. Usage problems are written to
// stderr.
func ServeUnit(args []string, stdout, stderr io.Writer) int {
	u, err := ParseUnitArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "contend unit: %v\n", err)
		return ExitUsage
	}

	result, runErr := kernel.Run(u.Kind, u.Params)

	report := unitReport{
		Ordinal: u.Ordinal,
		Kind:    u.Kind,
		Value:   result.Value,
		Bytes:   result.Bytes,
	}
	code := ExitOK
	if runErr != nil {
		report.Error = &reportError{Message: runErr.Error()}
		var kerr *kernel.Error
		if errors.As(runErr, &kerr) {
			report.Error.Op = kerr.Op
			report.Error.Path = kerr.Path
			report.Error.Message = kerr.Err.Error()
		}
		code = ExitKernelError
	}

	if err := json.NewEncoder(stdout).Encode(report); err != nil {
		fmt.Fprintf(stderr, "contend unit: failed to write report: %v\n", err)
		return ExitUsage
	}
	return code
}

// decodeReport reads the last JSON line of a child's stdout.
func decodeReport(out []byte) (unitReport, error) {
	out = bytes.TrimSpace(out)
	if i := bytes.LastIndexByte(out, '\n'); i >= 0 {
		out = out[i+1:]
	}
	if len(out) == 0 {
		return unitReport{}, errors.New("unit wrote no report")
	}
	if !gjson.ValidBytes(out) {
		return unitReport{}, fmt.Errorf("malformed unit report: %q", out)
	}

	doc := gjson.ParseBytes(out)
	ordinal := doc.Get("ordinal")
	if !ordinal.Exists() {
		return unitReport{}, errors.New("unit report has no ordinal")
	}

	rep := unitReport{
		Ordinal: int(ordinal.Int()),
		Kind:    kernel.Kind(doc.Get("kind").String()),
		Value:   doc.Get("value").Uint(),
		Bytes:   doc.Get("bytes").Uint(),
	}
	if e := doc.Get("error"); e.IsObject() {
		rep.Error = &reportError{
			Op:      kernel.Op(e.Get("op").String()),
			Path:    e.Get("path").String(),
			Message: e.Get("message").String(),
		}
	}
	return rep, nil
}

func (r unitReport) result() kernel.Result {
	return kernel.Result{Kind: r.Kind, Value: r.Value, Bytes: r.Bytes}
}

// err rebuilds the kernel error a child reported.
func (r unitReport) err() error {
	if r.Error == nil {
		return nil
	}
	return &kernel.Error{
		Kind: r.Kind,
		Op:   r.Error.Op,
		Path: r.Error.Path,
		Err:  errors.New(r.Error.Message),
	}
}
