package pattern

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// IfMatch is what a filter does with a line its pattern matches.
type IfMatch int

const (
	// Keep admits matching lines.
	Keep IfMatch = iota
	// Reject drops matching lines.
	Reject
)

// String returns the serialized name.
func (m IfMatch) String() string {
	if m == Reject {
		return "Reject"
	}
	return "Keep"
}

// ParseIfMatch parses "Keep" or "Reject", ignoring case.
func ParseIfMatch(s string) (IfMatch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keep":
		return Keep, nil
	case "reject":
		return Reject, nil
	}
	return Keep, fmt.Errorf("unknown filter action %q", s)
}

// Filter is a pattern with a keep/reject policy.
type Filter struct {
	Pattern
	IfMatch IfMatch
}

// NewFilter returns a filter over p.
func NewFilter(p Pattern, ifMatch IfMatch) Filter {
	return Filter{Pattern: p, IfMatch: ifMatch}
}

// KeepAll returns a filter that admits every line.
func KeepAll() Filter {
	p := Default()
	p.Invert = true
	return NewFilter(p, Keep)
}

// RejectAll returns a filter that drops every line.
func RejectAll() Filter {
	p := Default()
	p.Invert = true
	return NewFilter(p, Reject)
}

// Clone returns a copy of the filter.
func (f Filter) Clone() Filter {
	return f
}

// Equal reports whether two filters have the same configuration.
func (f Filter) Equal(o Filter) bool {
	return f.Pattern.Equal(o.Pattern) && f.IfMatch == o.IfMatch
}

// Hash returns a hash consistent with Equal.
func (f Filter) Hash() uint64 {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s|%d", f.Pattern.key(), f.IfMatch)
	return h.Sum64()
}

// Filters is an ordered filter list.
type Filters []Filter

// Admit reports whether line passes the list. The first filter that matches
// decides; a line no filter matches is admitted.
func (fs Filters) Admit(line string) bool {
	for _, f := range fs {
		if f.IsMatch(line) {
			return f.IfMatch == Keep
		}
	}
	return true
}
