// Package kernel provides the workload kernels executed by every unit.
//
// A kernel is a deterministic computation that stresses one resource:
//
//   - cpu: floating-point arithmetic whose accumulator is threaded through
//     every iteration
//   - mem: strided and hashed access over a private heap buffer
//   - io: write/fsync/read round trips against a private file
//
// Kernels know nothing about how they are scheduled. The same parameters
// produce the same Result whether the kernel runs in a child process or in
// a thread of the harness.
package kernel

import (
	"fmt"
	"math"
)

// MiB is the unit used for working set and payload sizes.
const MiB = 1024 * 1024

// Kind identifies a workload kernel.
type Kind string

const (
	// KindCPU burns CPU with dependent floating-point arithmetic.
	KindCPU Kind = "cpu"

	// KindMemory stresses RAM bandwidth and the cache hierarchy.
	KindMemory Kind = "mem"

	// KindIO stresses the disk with synced write/read round trips.
	KindIO Kind = "io"
)

// Kinds lists every supported kernel kind in display order.
var Kinds = []Kind{KindCPU, KindMemory, KindIO}

// ParseKind converts a user-supplied name into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCPU, KindMemory, KindIO:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown kernel kind %q (want cpu, mem or io)", s)
	}
}

// Params holds the inputs of one kernel invocation.
//
// Every field relevant to the kind must be set by the caller; the kernel
// package never substitutes defaults.
type Params struct {
	// Iterations is the number of rounds every kernel performs.
	Iterations uint64 `json:"iterations" yaml:"iterations"`

	// WorkingSetMB is the buffer size of the mem kernel.
	WorkingSetMB uint64 `json:"workingSetMB,omitempty" yaml:"workingSetMB,omitempty"`

	// PayloadMB is the per-round payload size of the io kernel.
	PayloadMB uint64 `json:"payloadMB,omitempty" yaml:"payloadMB,omitempty"`

	// Path is the file owned by one io kernel invocation.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Result is what a kernel reports after running to completion.
type Result struct {
	Kind Kind `json:"kind"`

	// Value is the kernel's final accumulator. For cpu it holds the
	// IEEE-754 bits of the float64 accumulator.
	Value uint64 `json:"value"`

	// Bytes is the working set or payload size actually used.
	Bytes uint64 `json:"bytes,omitempty"`
}

// Float returns Value interpreted as a cpu accumulator.
func (r Result) Float() float64 {
	return math.Float64frombits(r.Value)
}

// String renders the accumulator the way the kernel defines it.
func (r Result) String() string {
	if r.Kind == KindCPU {
		return fmt.Sprintf("acc=%.3f", r.Float())
	}
	if r.Kind == KindIO {
		return fmt.Sprintf("checksum=%d", r.Value)
	}
	return fmt.Sprintf("sum=%d", r.Value)
}

// Run executes the kernel of the given kind.
func Run(kind Kind, p Params) (Result, error) {
	switch kind {
	case KindCPU:
		acc := RunCPU(p.Iterations)
		return Result{Kind: kind, Value: math.Float64bits(acc)}, nil

	case KindMemory:
		sum, err := RunMemory(p.Iterations, p.WorkingSetMB)
		if err != nil {
			return Result{Kind: kind}, err
		}
		n, _ := memoryElements(p.WorkingSetMB)
		return Result{Kind: kind, Value: sum, Bytes: uint64(n) * 8}, nil

	case KindIO:
		sum, err := RunIO(p.Iterations, p.PayloadMB, p.Path)
		if err != nil {
			return Result{Kind: kind}, err
		}
		return Result{Kind: kind, Value: sum, Bytes: payloadSize(p.PayloadMB)}, nil

	default:
		return Result{Kind: kind}, fmt.Errorf("unknown kernel kind %q", kind)
	}
}
