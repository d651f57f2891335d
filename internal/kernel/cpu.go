package kernel

// cpuBound resets the accumulator before it can overflow.
const cpuBound = 1e12

// RunCPU performs iterations rounds of dependent floating-point arithmetic
// and returns the final accumulator.
//
// Every round reads the previous accumulator, so the loop cannot be folded
// into a constant, and the caller receives the value so it cannot be
// discarded either.
func RunCPU(iterations uint64) float64 {
	acc := 1.0
	for i := uint64(1); i <= iterations; i++ {
		acc += float64(i) * 1.000001
		acc *= 0.999999
		if acc > cpuBound {
			acc = 1.0
		}
	}
	return acc
}
