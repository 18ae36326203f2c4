package monitor

import (
	"fmt"

	"github.com/psryland/rylogic-code-sub008/pkg/pattern"
	"github.com/psryland/rylogic-code-sub008/pkg/transform"
	"github.com/psryland/rylogic-code-sub008/pkg/types"
)

type compiledFilter struct {
	matcher *pattern.Matcher
	ifMatch pattern.IfMatch
}

type compiledHighlight struct {
	matcher *pattern.Matcher
	style   types.Style
	binary  bool
}

// PatternSet applies filters, then transforms, then highlights to each line.
// It is immutable once built and safe for concurrent use.
type PatternSet struct {
	filters    []compiledFilter
	transforms []*transform.Compiled
	highlights []compiledHighlight

	filterGate    *Prefilter
	highlightGate *Prefilter
}

// NewPatternSet compiles the given lists. Inactive entries are dropped and
// invalid ones are dropped with an error each, so a set is always returned.
func NewPatternSet(filters []pattern.Filter, transforms []transform.Transform, highlights []pattern.Highlight, opts Options) (*PatternSet, []error) {
	ps := &PatternSet{}
	var errs []error

	var filterPatterns []pattern.Pattern
	for i, f := range filters {
		if !f.Active {
			continue
		}
		m := f.Pattern.CompileWith(opts.Match)
		if err := m.Err(); err != nil {
			errs = append(errs, fmt.Errorf("filter %d: %w", i+1, err))
			continue
		}
		ps.filters = append(ps.filters, compiledFilter{matcher: m, ifMatch: f.IfMatch})
		filterPatterns = append(filterPatterns, f.Pattern)
	}

	for i, t := range transforms {
		if !t.Active {
			continue
		}
		c := t.CompileWith(opts.Match)
		if err := c.Err(); err != nil {
			errs = append(errs, fmt.Errorf("transform %d: %w", i+1, err))
			continue
		}
		ps.transforms = append(ps.transforms, c)
	}

	var highlightPatterns []pattern.Pattern
	for i, h := range highlights {
		if !h.Active {
			continue
		}
		m := h.Pattern.CompileWith(opts.Match)
		if err := m.Err(); err != nil {
			errs = append(errs, fmt.Errorf("highlight %d: %w", i+1, err))
			continue
		}
		ps.highlights = append(ps.highlights, compiledHighlight{
			matcher: m,
			style:   types.Style{Foreground: h.Foreground, Background: h.Background},
			binary:  h.BinaryMatch,
		})
		highlightPatterns = append(highlightPatterns, h.Pattern)
	}

	if opts.Prefilter {
		ps.filterGate = NewPrefilter(filterPatterns)
		ps.highlightGate = NewPrefilter(highlightPatterns)
	}
	return ps, errs
}

// Len returns the number of compiled filters, transforms and highlights.
func (ps *PatternSet) Len() (filters, transforms, highlights int) {
	return len(ps.filters), len(ps.transforms), len(ps.highlights)
}

// Admit reports whether the filters keep line. The first matching filter
// decides; a line no filter matches is kept.
func (ps *PatternSet) Admit(line string) bool {
	found := ps.filterGate.Scan(line)
	for i, f := range ps.filters {
		if ps.filterGate.Skip(i, found) {
			continue
		}
		if f.matcher.IsMatch(line) {
			return f.ifMatch == pattern.Keep
		}
	}
	return true
}

// Transform runs every transform in order, each on the previous result.
func (ps *PatternSet) Transform(line string) string {
	for _, t := range ps.transforms {
		line = t.ApplyString(line)
	}
	return line
}

// Highlight returns the highlighted spans of line and the style of the first
// binary highlight that matches it, if any.
func (ps *PatternSet) Highlight(line string) ([]types.StyledSpan, *types.Style) {
	var spans []types.StyledSpan
	var row *types.Style

	found := ps.highlightGate.Scan(line)
	for i, h := range ps.highlights {
		if ps.highlightGate.Skip(i, found) {
			continue
		}
		if h.binary {
			if row == nil && h.matcher.IsMatch(line) {
				style := h.style
				row = &style
			}
			continue
		}
		for span := range h.matcher.Matches(line) {
			spans = append(spans, types.StyledSpan{Span: span, Style: h.style})
		}
	}
	return spans, row
}

// Process implements interfaces.LineProcessor.
func (ps *PatternSet) Process(number int, line string) (types.Line, bool) {
	if !ps.Admit(line) {
		return types.Line{}, false
	}
	text := ps.Transform(line)
	spans, row := ps.Highlight(text)
	return types.Line{
		Number:   number,
		Text:     text,
		Original: line,
		Spans:    spans,
		Row:      row,
	}, true
}
