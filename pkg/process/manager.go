package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
)

// Manager manages a process whose output is being watched
type Manager struct {
	ptyManager PTY
	exitCode   int
	mu         sync.Mutex
}

// NewManager creates a new process manager
func NewManager(p PTY) *Manager {
	if p == nil {
		p = NewPTYManager()
	}
	return &Manager{ptyManager: p}
}

// Start starts the process
func (m *Manager) Start(command string, args []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ptyManager.Start(command, args, os.Environ()); err != nil {
		return fmt.Errorf("failed to start process: %w", err)
	}
	return nil
}

// Output returns the process output
func (m *Manager) Output() io.Reader {
	return m.ptyManager.Output()
}

// Wait waits for the process to exit. A non-zero exit is reported through
// ExitCode rather than as an error.
func (m *Manager) Wait() error {
	err := m.ptyManager.Wait()

	m.mu.Lock()
	if state := m.ptyManager.ProcessState(); state != nil {
		m.exitCode = state.ExitCode()
	}
	m.mu.Unlock()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

// ExitCode returns the exit code of the process
func (m *Manager) ExitCode() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exitCode
}

// Stop asks the process to exit, killing it if the request fails
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	proc := m.ptyManager.Process()
	if proc == nil {
		return nil
	}

	// Send SIGTERM first for graceful shutdown
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		// If SIGTERM fails, force kill
		if !errors.Is(err, os.ErrProcessDone) {
			return proc.Kill()
		}
	}
	return nil
}
