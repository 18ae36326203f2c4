package testutil

import (
	"bytes"
	"io"
	"os"
	"sync"
)

// MockPTY is a mock implementation of process.PTY for testing.
// Its output is a fixed buffer.
type MockPTY struct {
	mu       sync.Mutex
	started  bool
	waited   bool
	command  string
	args     []string
	output   []byte
	startErr error
	waitErr  error
}

// NewMockPTY creates a mock PTY whose process writes output
func NewMockPTY(output string) *MockPTY {
	return &MockPTY{output: []byte(output)}
}

// Start implements the PTY interface
func (m *MockPTY) Start(command string, args []string, env []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.startErr != nil {
		return m.startErr
	}
	m.started = true
	m.command = command
	m.args = append([]string(nil), args...)
	return nil
}

// Output implements the PTY interface
func (m *MockPTY) Output() io.Reader {
	m.mu.Lock()
	defer m.mu.Unlock()
	return bytes.NewReader(m.output)
}

// Wait implements the PTY interface
func (m *MockPTY) Wait() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waited = true
	return m.waitErr
}

// ProcessState implements the PTY interface. The mock has no real process.
func (m *MockPTY) ProcessState() *os.ProcessState {
	return nil
}

// Process implements the PTY interface
func (m *MockPTY) Process() *os.Process {
	return nil
}

// SetStartError sets the error to return from Start
func (m *MockPTY) SetStartError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startErr = err
}

// SetWaitError sets the error to return from Wait
func (m *MockPTY) SetWaitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waitErr = err
}

// IsStarted returns whether Start succeeded
func (m *MockPTY) IsStarted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// IsWaited returns whether Wait was called
func (m *MockPTY) IsWaited() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waited
}

// GetCommand returns the command and arguments passed to Start
func (m *MockPTY) GetCommand() (string, []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.command, append([]string(nil), m.args...)
}
