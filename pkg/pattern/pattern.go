// Package pattern provides the matching rules used to filter, highlight and
// transform log lines.
package pattern

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// Kind selects how a pattern expression is interpreted.
type Kind int

const (
	// Substring matches the expression literally, with {tag} capture tags.
	Substring Kind = iota
	// Wildcard is Substring plus '*' (any run) and '?' (any single character).
	Wildcard
	// RegularExpression uses the expression verbatim as a regular expression.
	RegularExpression
)

var kindNames = []string{"Substring", "Wildcard", "RegularExpression"}

// String returns the serialized name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// ParseKind parses a kind name. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	for i, name := range kindNames {
		if strings.EqualFold(name, s) {
			return Kind(i), nil
		}
	}
	return Substring, fmt.Errorf("unknown pattern type %q", s)
}

// Pattern is a user configured text matching rule.
// It is a plain value: assigning a Pattern copies it.
type Pattern struct {
	Kind       Kind
	Expr       string
	IgnoreCase bool
	Active     bool
	Invert     bool
	WholeLine  bool
}

// New returns an active pattern of the given kind.
func New(kind Kind, expr string) Pattern {
	return Pattern{Kind: kind, Expr: expr, Active: true}
}

// Default returns an active, empty substring pattern.
func Default() Pattern {
	return New(Substring, "")
}

// Clone returns a copy of the pattern.
func (p Pattern) Clone() Pattern {
	return p
}

// Equal reports whether two patterns have the same configuration.
func (p Pattern) Equal(o Pattern) bool {
	return p == o
}

// Hash returns a hash consistent with Equal.
func (p Pattern) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(p.key()))
	return h.Sum64()
}

// Matcher returns the shared compiled matcher for the pattern's current
// configuration.
func (p Pattern) Matcher() *Matcher {
	return cached(p)
}

// IsValid reports whether the expression compiles.
func (p Pattern) IsValid() bool {
	return cached(p).IsValid()
}

// Validate returns the compile diagnostic for the pattern, or nil.
func (p Pattern) Validate() error {
	return cached(p).Err()
}

// IsMatch reports whether text matches the pattern.
func (p Pattern) IsMatch(text string) bool {
	return cached(p).IsMatch(text)
}

// CaptureGroups returns the named captures of the first match in text.
func (p Pattern) CaptureGroups(text string) []Capture {
	return cached(p).CaptureGroups(text)
}

// GroupNames returns the capture group names of the compiled pattern.
func (p Pattern) GroupNames() []string {
	return cached(p).GroupNames()
}

// String describes the pattern for diagnostics.
func (p Pattern) String() string {
	var flags []string
	if !p.Active {
		flags = append(flags, "inactive")
	}
	if p.IgnoreCase {
		flags = append(flags, "ignore-case")
	}
	if p.Invert {
		flags = append(flags, "invert")
	}
	if p.WholeLine {
		flags = append(flags, "whole-line")
	}
	if len(flags) == 0 {
		return fmt.Sprintf("%s %q", p.Kind, p.Expr)
	}
	return fmt.Sprintf("%s %q [%s]", p.Kind, p.Expr, strings.Join(flags, ","))
}

// key is the canonical encoding of every configuration field.
func (p Pattern) key() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(int(p.Kind)))
	for _, f := range []bool{p.IgnoreCase, p.Active, p.Invert, p.WholeLine} {
		if f {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	b.WriteByte(':')
	b.WriteString(p.Expr)
	return b.String()
}
