// Package types contains shared data structures used across the application.
package types

import (
	"github.com/psryland/rylogic-code-sub008/pkg/pattern"
)

// Line is one processed log line, ready for rendering.
type Line struct {
	// Number is the 1-based position of the line in its input, counting
	// lines that were filtered out.
	Number int
	// Text is the line after transforms.
	Text string
	// Original is the line as read.
	Original string
	// Spans are highlighted regions of Text in rune offsets, in the order
	// the highlights are configured.
	Spans []StyledSpan
	// Row, when set, colours the whole line.
	Row *Style
}

// Transformed reports whether any transform changed the line.
func (l Line) Transformed() bool {
	return l.Text != l.Original
}

// Style is a foreground and background colour pair.
type Style struct {
	Foreground pattern.Colour
	Background pattern.Colour
}

// StyledSpan is a highlighted region of a line.
type StyledSpan struct {
	pattern.Span
	Style
}

// Stats counts what happened to processed lines.
type Stats struct {
	Lines       int
	Admitted    int
	Rejected    int
	Transformed int
	Highlighted int
}
