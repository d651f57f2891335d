package harness

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/wesleyorama2/contend/internal/kernel"
)

// ProcessSpawner runs every unit in a child process: the current
// executable re-executed with the hidden unit subcommand. Each child has
// its own address space, so a fault in one unit cannot reach another.
type ProcessSpawner struct {
	// Executable is the binary to run. It must understand Args followed
	// by the flags produced by UnitArgs.
	Executable string

	// Args come before the unit flags, normally the unit subcommand.
	Args []string

	// Env is appended to the parent environment.
	Env []string

	Logger *slog.Logger
}

// NewProcessSpawner creates a spawner that re-executes the running binary.
func NewProcessSpawner(logger *slog.Logger) (*ProcessSpawner, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to locate executable: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessSpawner{
		Executable: exe,
		Args:       []string{"unit"},
		Logger:     logger,
	}, nil
}

func (s *ProcessSpawner) Model() Model {
	return ModelProcess
}

// Spawn starts the child process for u.
func (s *ProcessSpawner) Spawn(u Unit) (Handle, error) {
	args := make([]string, 0, len(s.Args)+10)
	args = append(args, s.Args...)
	args = append(args, UnitArgs(u)...)

	cmd := exec.Command(s.Executable, args...)
	cmd.Env = append(os.Environ(), s.Env...)

	h := &processHandle{unit: u, cmd: cmd, logger: s.logger()}
	cmd.Stdout = &h.stdout
	cmd.Stderr = &h.stderr

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Ordinal: u.Ordinal, Model: ModelProcess, Err: err}
	}

	s.logger().Debug("unit process started", "ordinal", u.Ordinal, "pid", cmd.Process.Pid)
	return h, nil
}

func (s *ProcessSpawner) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

type processHandle struct {
	unit   Unit
	cmd    *exec.Cmd
	stdout bytes.Buffer
	stderr bytes.Buffer
	logger *slog.Logger
}

func (h *processHandle) PID() int {
	return h.cmd.Process.Pid
}

// Wait reaps the child and maps its exit status onto the unit protocol.
func (h *processHandle) Wait() (kernel.Result, error) {
	err := h.cmd.Wait()
	pid := h.PID()

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return kernel.Result{Kind: h.unit.Kind}, &WaitError{Ordinal: h.unit.Ordinal, PID: pid, Err: err}
		}

		if exitErr.ExitCode() == ExitKernelError {
			rep, derr := decodeReport(h.stdout.Bytes())
			if derr == nil && rep.Ordinal != h.unit.Ordinal {
				return kernel.Result{Kind: h.unit.Kind}, h.misdirected(pid, rep)
			}
			if derr == nil && rep.Error != nil {
				h.logger.Debug("unit process reported kernel error", "ordinal", h.unit.Ordinal, "pid", pid, "error", rep.Error.Message)
				return rep.result(), rep.err()
			}
			if derr == nil {
				derr = errors.New("report carries no error")
			}
			return kernel.Result{Kind: h.unit.Kind}, &kernel.Error{
				Kind: h.unit.Kind,
				Err:  fmt.Errorf("unit exited with status %d: %w", ExitKernelError, derr),
			}
		}

		term := &TerminationError{
			Ordinal:  h.unit.Ordinal,
			PID:      pid,
			ExitCode: exitErr.ExitCode(),
			Stderr:   lastLine(h.stderr.Bytes()),
		}
		if sig, core, ok := terminationSignal(exitErr.ProcessState); ok {
			term.Signal = sig
			term.Core = core
		}
		h.logger.Debug("unit process terminated abnormally", "ordinal", h.unit.Ordinal, "pid", pid, "exit_code", term.ExitCode, "signal", term.Signal)
		return kernel.Result{Kind: h.unit.Kind}, term
	}

	rep, err := decodeReport(h.stdout.Bytes())
	if err != nil {
		return kernel.Result{Kind: h.unit.Kind}, &WaitError{Ordinal: h.unit.Ordinal, PID: pid, Err: err}
	}
	if rep.Ordinal != h.unit.Ordinal {
		return kernel.Result{Kind: h.unit.Kind}, h.misdirected(pid, rep)
	}
	if rep.Error != nil {
		return rep.result(), rep.err()
	}
	return rep.result(), nil
}

// misdirected reports a child whose report names another unit. Nothing in
// such a report can be attributed to this unit.
func (h *processHandle) misdirected(pid int, rep unitReport) error {
	return &WaitError{
		Ordinal: h.unit.Ordinal,
		PID:     pid,
		Err:     fmt.Errorf("report is for unit %d", rep.Ordinal),
	}
}

func lastLine(b []byte) string {
	b = bytes.TrimSpace(b)
	if i := bytes.LastIndexByte(b, '\n'); i >= 0 {
		b = b[i+1:]
	}
	return string(b)
}
