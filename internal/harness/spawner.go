package harness

import (
	"fmt"
	"log/slog"

	"github.com/wesleyorama2/contend/internal/kernel"
)

// Spawner creates units under one execution model.
//
// Spawn starts the unit and returns immediately; the unit runs
// concurrently with the caller until its Handle is waited on. Spawn
// returns a *SpawnError when the unit could not be created.
type Spawner interface {
	Model() Model
	Spawn(u Unit) (Handle, error)
}

// Handle observes one running unit.
//
// Wait blocks until the unit is terminal and must be called exactly once.
// A nil error means the kernel succeeded. Otherwise the error is a
// *TerminationError, a *WaitError or the error the kernel reported.
type Handle interface {
	Wait() (kernel.Result, error)
}

// pidHandle is implemented by handles backed by an OS process.
type pidHandle interface {
	PID() int
}

// NewSpawner creates the spawner for the given model.
func NewSpawner(model Model, logger *slog.Logger) (Spawner, error) {
	switch model {
	case ModelThread:
		return NewThreadSpawner(), nil
	case ModelProcess:
		s, err := NewProcessSpawner(logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create process spawner: %w", err)
		}
		return s, nil
	default:
		return nil, &ConfigurationError{Field: "model", Value: model, Message: "must be process or thread"}
	}
}
