package process

import (
	"io"
	"os"
)

// PTY defines the interface for PTY operations
type PTY interface {
	Start(command string, args []string, env []string) error
	// Output returns the process output. It reports io.EOF once the
	// process has exited and its output is drained.
	Output() io.Reader
	Wait() error
	ProcessState() *os.ProcessState
	Process() *os.Process
}
