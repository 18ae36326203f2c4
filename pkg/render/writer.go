package render

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/psryland/rylogic-code-sub008/pkg/types"
)

// Writer writes rendered lines to an output. It implements interfaces.LineSink.
type Writer struct {
	mu          sync.Mutex
	w           io.Writer
	renderer    *Renderer
	lineNumbers bool
	gutter      lipgloss.Style
}

// NewWriter creates a writer that renders lines with r.
func NewWriter(w io.Writer, r *Renderer, lineNumbers bool) *Writer {
	return &Writer{
		w:           w,
		renderer:    r,
		lineNumbers: lineNumbers,
		gutter:      r.lg.NewStyle().Faint(true),
	}
}

// WriteLine implements the LineSink interface
func (w *Writer) WriteLine(line types.Line) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	text := w.renderer.Render(line)
	if w.lineNumbers {
		text = w.gutter.Render(fmt.Sprintf("%6d", line.Number)) + "  " + text
	}
	if _, err := io.WriteString(w.w, text+"\n"); err != nil {
		return fmt.Errorf("write line %d: %w", line.Number, err)
	}
	return nil
}
