package pattern

import (
	"iter"

	"github.com/dlclark/regexp2"
)

// Span is a range of a line measured in runes.
type Span struct {
	Offset int
	Length int
}

// End returns the offset just past the span.
func (s Span) End() int {
	return s.Offset + s.Length
}

// Capture is one named group captured from a line.
type Capture struct {
	ID   string
	Text string
	Span Span
}

// Matcher is the compiled, immutable form of a Pattern.
// It is safe for concurrent use.
type Matcher struct {
	pattern Pattern
	regex   string
	re      *regexp2.Regexp
	err     error
	names   []string
}

// Pattern returns the configuration the matcher was compiled from.
func (m *Matcher) Pattern() Pattern {
	return m.pattern
}

// Regex returns the rendered regular expression.
func (m *Matcher) Regex() string {
	return m.regex
}

// IsValid reports whether the pattern compiled.
func (m *Matcher) IsValid() bool {
	return m.err == nil
}

// Err returns the compile error, if any.
func (m *Matcher) Err() error {
	return m.err
}

// GroupNames returns the names of all groups, including the whole match "0".
// It returns an empty slice for invalid patterns.
func (m *Matcher) GroupNames() []string {
	if m.err != nil {
		return []string{}
	}
	return append([]string(nil), m.names...)
}

// HasGroup reports whether name is one of the pattern's groups.
func (m *Matcher) HasGroup(name string) bool {
	for _, n := range m.names {
		if n == name {
			return true
		}
	}
	return false
}

// IsMatch reports whether text matches. Inactive and invalid patterns never
// match. An empty expression only matches when inverted.
func (m *Matcher) IsMatch(text string) bool {
	if !m.pattern.Active || m.err != nil {
		return false
	}
	if m.pattern.Expr == "" {
		return m.pattern.Invert
	}
	ok, err := m.re.MatchString(text)
	if err != nil {
		return false
	}
	return ok != m.pattern.Invert
}

// Matches yields the matched spans of text. For inverted patterns it yields
// the regions between matches instead. Zero length spans are skipped. An
// engine error ends the sequence; inverted patterns then yield nothing.
func (m *Matcher) Matches(text string) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		if !m.pattern.Active || m.err != nil {
			return
		}
		if !m.pattern.Invert {
			_ = m.scan(text, yield)
			return
		}

		bounds := []int{0}
		err := m.scan(text, func(s Span) bool {
			bounds = append(bounds, s.Offset, s.End())
			return true
		})
		if err != nil {
			return
		}
		bounds = append(bounds, len([]rune(text)))
		for i := 0; i+1 < len(bounds); i += 2 {
			s := Span{Offset: bounds[i], Length: bounds[i+1] - bounds[i]}
			if s.Length <= 0 {
				continue
			}
			if !yield(s) {
				return
			}
		}
	}
}

// scan passes the non-empty regex matches of text to yield in order until
// yield returns false. It returns the engine error that ended the scan, if any.
func (m *Matcher) scan(text string, yield func(Span) bool) error {
	if m.pattern.Expr == "" {
		return nil
	}
	match, err := m.re.FindStringMatch(text)
	for match != nil && err == nil {
		if match.Length > 0 {
			if !yield(Span{Offset: match.Index, Length: match.Length}) {
				return nil
			}
		}
		match, err = m.re.FindNextMatch(match)
	}
	return err
}

// CaptureGroups returns the groups of the first match in group order,
// starting with the whole match "0". It is empty unless IsMatch(text).
// An inverted pattern matches where the regex does not, so its groups
// are reported with empty values.
func (m *Matcher) CaptureGroups(text string) []Capture {
	if !m.IsMatch(text) {
		return nil
	}
	if caps := m.Find(text); caps != nil {
		return caps
	}
	caps := make([]Capture, len(m.names))
	for i, name := range m.names {
		caps[i] = Capture{ID: name}
	}
	return caps
}

// Find returns every group of the first regex match in text, ignoring
// Active and Invert. It returns nil when the regex does not match.
func (m *Matcher) Find(text string) []Capture {
	if m.err != nil || m.pattern.Expr == "" {
		return nil
	}
	match, err := m.re.FindStringMatch(text)
	if err != nil || match == nil {
		return nil
	}
	groups := match.Groups()
	caps := make([]Capture, 0, len(groups))
	for i := range groups {
		g := &groups[i]
		caps = append(caps, Capture{
			ID:   g.Name,
			Text: g.String(),
			Span: Span{Offset: g.Index, Length: g.Length},
		})
	}
	return caps
}
