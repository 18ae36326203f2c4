package monitor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/psryland/rylogic-code-sub008/pkg/config"
	"github.com/psryland/rylogic-code-sub008/pkg/interfaces"
	"github.com/psryland/rylogic-code-sub008/pkg/types"
)

const readChunkSize = 32 * 1024

// OutputMonitor splits raw output into lines and passes each through a
// LineProcessor to a LineSink.
type OutputMonitor struct {
	config    *config.Config
	processor interfaces.LineProcessor
	sink      interfaces.LineSink

	mu         sync.Mutex
	lineBuffer bytes.Buffer
	lineNumber int
	stats      types.Stats
}

// Ensure OutputMonitor implements DataHandler
var _ interfaces.DataHandler = (*OutputMonitor)(nil)

// NewOutputMonitor creates a new output monitor
func NewOutputMonitor(cfg *config.Config, processor interfaces.LineProcessor, sink interfaces.LineSink) *OutputMonitor {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &OutputMonitor{
		config:    cfg,
		processor: processor,
		sink:      sink,
	}
}

// HandleData processes raw output data
func (om *OutputMonitor) HandleData(data []byte) {
	om.mu.Lock()
	defer om.mu.Unlock()

	// Add data to line buffer
	om.lineBuffer.Write(data)

	// Process complete lines
	buffer := om.lineBuffer.Bytes()
	start := 0
	for i := 0; i < len(buffer); i++ {
		if buffer[i] == '\n' {
			om.processLine(string(bytes.TrimSuffix(buffer[start:i], []byte{'\r'})))
			start = i + 1
		}
	}

	// Keep any incomplete line in the buffer
	rest := append([]byte(nil), buffer[start:]...)
	om.lineBuffer.Reset()
	om.lineBuffer.Write(rest)
}

// HandleLine implements the OutputHandler interface
func (om *OutputMonitor) HandleLine(line string) {
	om.mu.Lock()
	defer om.mu.Unlock()

	om.processLine(line)
}

// Flush processes any remaining data in the buffer
func (om *OutputMonitor) Flush() {
	om.mu.Lock()
	defer om.mu.Unlock()

	// Process any remaining line
	if om.lineBuffer.Len() > 0 {
		line := om.lineBuffer.String()
		om.lineBuffer.Reset()
		om.processLine(line)
	}
}

// Consume reads r until EOF or until ctx is done, then flushes the final
// partial line. Cancellation is checked between reads.
func (om *OutputMonitor) Consume(ctx context.Context, r io.Reader) error {
	buf := make([]byte, readChunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			om.HandleData(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			om.Flush()
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
	}
}

// processLine runs one line through the processor. Callers hold om.mu.
func (om *OutputMonitor) processLine(line string) {
	om.lineNumber++
	om.stats.Lines++

	if om.config.StripANSI {
		line = cleanLine(line)
	}

	out, ok := om.processor.Process(om.lineNumber, line)
	if !ok {
		om.stats.Rejected++
		if os.Getenv("LOGPATN_DEBUG") == "true" {
			fmt.Fprintf(os.Stderr, "logpatn: line %d filtered: %q\n", om.lineNumber, line)
		}
		return
	}

	om.stats.Admitted++
	if out.Transformed() {
		om.stats.Transformed++
	}
	if len(out.Spans) > 0 || out.Row != nil {
		om.stats.Highlighted++
	}

	if om.sink == nil {
		return
	}
	if err := om.sink.WriteLine(out); err != nil {
		// Log error but keep processing input
		fmt.Fprintf(os.Stderr, "logpatn: output error: %v\n", err)
	}
}

// Stats returns the counts so far
func (om *OutputMonitor) Stats() types.Stats {
	om.mu.Lock()
	defer om.mu.Unlock()
	return om.stats
}
