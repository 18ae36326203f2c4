// Package render draws processed lines for a terminal.
package render

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/psryland/rylogic-code-sub008/pkg/config"
	"github.com/psryland/rylogic-code-sub008/pkg/pattern"
	"github.com/psryland/rylogic-code-sub008/pkg/types"
)

// Renderer turns lines into styled strings for one output.
type Renderer struct {
	lg *lipgloss.Renderer
}

// NewRenderer returns a renderer for w. The colour mode is one of the
// config.Color values; auto colours only when w is a terminal.
func NewRenderer(w io.Writer, mode string) *Renderer {
	lg := lipgloss.NewRenderer(w)
	switch mode {
	case config.ColorAlways:
		lg.SetColorProfile(termenv.TrueColor)
	case config.ColorNever:
		lg.SetColorProfile(termenv.Ascii)
	default:
		if !isTerminal(w) {
			lg.SetColorProfile(termenv.Ascii)
		}
	}
	return &Renderer{lg: lg}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Colored reports whether output carries colour.
func (r *Renderer) Colored() bool {
	return r.lg.ColorProfile() != termenv.Ascii
}

// segment is a run of text drawn with one style. A nil style is plain.
type segment struct {
	text  string
	style *types.Style
}

// segments splits a line into styled runs. Where spans overlap the span
// listed first wins. Unhighlighted text takes the row style, if any.
func segments(line types.Line) []segment {
	runes := []rune(line.Text)
	if len(runes) == 0 {
		return nil
	}

	owner := make([]int, len(runes))
	for i := range owner {
		owner[i] = -1
	}
	for i, s := range line.Spans {
		start := max(s.Offset, 0)
		end := min(s.End(), len(runes))
		for j := start; j < end; j++ {
			if owner[j] == -1 {
				owner[j] = i
			}
		}
	}

	styleOf := func(idx int) *types.Style {
		if idx < 0 {
			return line.Row
		}
		return &line.Spans[idx].Style
	}

	var segs []segment
	start := 0
	for i := 1; i <= len(runes); i++ {
		if i < len(runes) && owner[i] == owner[start] {
			continue
		}
		segs = append(segs, segment{text: string(runes[start:i]), style: styleOf(owner[start])})
		start = i
	}
	return segs
}

// Render returns the line with its highlights applied.
func (r *Renderer) Render(line types.Line) string {
	if !r.Colored() {
		return line.Text
	}
	var out []byte
	for _, seg := range segments(line) {
		if seg.style == nil {
			out = append(out, seg.text...)
			continue
		}
		out = append(out, r.style(*seg.style).Render(seg.text)...)
	}
	return string(out)
}

func (r *Renderer) style(s types.Style) lipgloss.Style {
	return r.lg.NewStyle().
		TabWidth(lipgloss.NoTabConversion).
		Foreground(color(s.Foreground)).
		Background(color(s.Background))
}

func color(c pattern.Colour) lipgloss.Color {
	return lipgloss.Color(c.Hex())
}
