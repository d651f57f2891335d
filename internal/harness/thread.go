package harness

import (
	"runtime"

	"github.com/wesleyorama2/contend/internal/kernel"
)

// ThreadSpawner runs every unit on a dedicated OS thread of the current
// process. Units share the harness's address space.
//
// A panic inside a unit is not recovered. It takes down the whole
// process, siblings included, which is the price of sharing an address
// space. The process model does not have this limitation.
type ThreadSpawner struct {
	run func(kernel.Kind, kernel.Params) (kernel.Result, error)
}

// NewThreadSpawner creates a spawner that runs the real kernels.
func NewThreadSpawner() *ThreadSpawner {
	return &ThreadSpawner{run: kernel.Run}
}

func (s *ThreadSpawner) Model() Model {
	return ModelThread
}

// Spawn starts the unit on a goroutine wired to its own OS thread. It
// never fails: goroutine creation cannot be refused.
func (s *ThreadSpawner) Spawn(u Unit) (Handle, error) {
	h := &threadHandle{done: make(chan struct{})}

	go func() {
		// Never unlocked: the thread exits together with the goroutine,
		// so no other goroutine is ever scheduled onto it.
		runtime.LockOSThread()
		defer close(h.done)

		h.result, h.err = s.run(u.Kind, u.Params)
	}()

	return h, nil
}

type threadHandle struct {
	done   chan struct{}
	result kernel.Result
	err    error
}

func (h *threadHandle) Wait() (kernel.Result, error) {
	<-h.done
	return h.result, h.err
}
