package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// PTYManager runs a process on a pseudo terminal, so it keeps the colours
// and line buffering it would use on a real one.
type PTYManager struct {
	cmd *exec.Cmd
	pty *os.File
	mu  sync.Mutex
}

// Ensure PTYManager implements PTY
var _ PTY = (*PTYManager)(nil)

// NewPTYManager creates a new PTY manager
func NewPTYManager() *PTYManager {
	return &PTYManager{}
}

// Start starts a process with PTY
func (p *PTYManager) Start(command string, args []string, env []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return fmt.Errorf("process already started")
	}

	// Create the command
	cmd := exec.Command(command, args...)
	cmd.Env = env

	// Start the command with a PTY
	f, err := pty.StartWithSize(cmd, terminalSize())
	if err != nil {
		return fmt.Errorf("failed to start PTY: %w", err)
	}
	p.cmd = cmd
	p.pty = f
	return nil
}

// terminalSize returns the size of our own terminal, or nil when stdout is
// not one.
func terminalSize() *pty.Winsize {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return nil
	}
	size, err := pty.GetsizeFull(os.Stdout)
	if err != nil {
		return nil
	}
	return size
}

// Output returns a reader over the PTY
func (p *PTYManager) Output() io.Reader {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &ptyReader{f: p.pty}
}

// Wait waits for the process to complete and closes the PTY
func (p *PTYManager) Wait() error {
	p.mu.Lock()
	cmd := p.cmd
	p.mu.Unlock()

	if cmd == nil {
		return fmt.Errorf("process not started")
	}

	err := cmd.Wait()

	// Close PTY
	p.mu.Lock()
	if p.pty != nil {
		_ = p.pty.Close()
	}
	p.mu.Unlock()

	return err
}

// ProcessState returns the process state
func (p *PTYManager) ProcessState() *os.ProcessState {
	if p.cmd == nil {
		return nil
	}
	return p.cmd.ProcessState
}

// Process returns the underlying process
func (p *PTYManager) Process() *os.Process {
	if p.cmd == nil {
		return nil
	}
	return p.cmd.Process
}

// ptyReader reads the PTY master. Linux reports EIO once the process side
// has closed; that is the end of output, not a failure.
type ptyReader struct {
	f *os.File
}

func (r *ptyReader) Read(b []byte) (int, error) {
	if r.f == nil {
		return 0, io.EOF
	}
	n, err := r.f.Read(b)
	if errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed) {
		err = io.EOF
	}
	return n, err
}
