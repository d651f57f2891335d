package kernel

import (
	"fmt"
	"math"
)

const (
	// MinElements is the smallest buffer the mem kernel works on, so that
	// tiny working sets still have room for non-trivial strides.
	MinElements = 1024

	// memStride is 64 elements, a 512 byte jump: several cache lines.
	memStride = 64

	// Knuth's multiplicative hash constant; spreads the hashed pass over
	// the buffer in a fixed, reproducible order.
	hashMultiplier = 2654435761

	// memValueBound keeps written-back values in a fixed range.
	memValueBound = 1_000_000
)

// RunMemory allocates a working set of workingSetMB MiB and performs
// iterations rounds of strided, hashed and bulk-copy passes over it.
// It returns the running sum of every value read.
//
// A working set that cannot be addressed, or that does not fit the
// process address space limit or RAM plus swap, is reported as an *Error
// with OpAlloc before anything is allocated.
func RunMemory(iterations, workingSetMB uint64) (uint64, error) {
	n, ok := memoryElements(workingSetMB)
	if !ok {
		return 0, &Error{
			Kind: KindMemory,
			Op:   OpAlloc,
			Err:  fmt.Errorf("working set of %d MiB is not addressable", workingSetMB),
		}
	}

	if err := checkAllocatable(uint64(n) * 8); err != nil {
		return 0, &Error{Kind: KindMemory, Op: OpAlloc, Err: err}
	}

	buf, err := allocate[uint64](n)
	if err != nil {
		return 0, &Error{Kind: KindMemory, Op: OpAlloc, Err: err}
	}

	// Touch every element once so all pages are backed.
	for i := range buf {
		buf[i] = uint64(i)
	}

	size := uint64(n)
	half := n / 2
	var sum uint64

	for it := uint64(0); it < iterations; it++ {
		for i := 0; i < n; i += memStride {
			buf[i] ^= it
			sum += buf[i]
		}

		for j := uint64(0); j < size/memStride; j++ {
			idx := (j*hashMultiplier + it) % size
			sum += buf[idx]
			buf[idx] = sum % memValueBound
		}

		copy(buf[half:], buf[:half])
	}

	return sum, nil
}

// memoryElements converts a working set size into an element count with
// the MinElements floor applied. It reports false when the size cannot be
// represented.
func memoryElements(workingSetMB uint64) (int, bool) {
	if workingSetMB > math.MaxUint64/MiB {
		return 0, false
	}
	n := workingSetMB * MiB / 8
	if n > math.MaxInt {
		return 0, false
	}
	if n < MinElements {
		n = MinElements
	}
	return int(n), true
}

// allocate turns a failed make into an error. Out-of-range lengths panic
// inside the runtime before any memory is requested, which is recoverable.
func allocate[T any](n int) (buf []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = fmt.Errorf("allocating %d elements: %v", n, r)
		}
	}()
	return make([]T, n), nil
}
