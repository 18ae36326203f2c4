// Package transform rewrites matching lines through a replace template whose
// {tag} placeholders are filled from the pattern's capture groups.
package transform

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"maps"
	"slices"

	"github.com/dlclark/regexp2"

	"github.com/psryland/rylogic-code-sub008/pkg/pattern"
	"github.com/psryland/rylogic-code-sub008/pkg/substitution"
)

// ErrUnknownTag is returned when the replace template names a group the
// pattern does not capture.
var ErrUnknownTag = errors.New("unknown capture tag")

// tagExpr finds {tag} placeholders in a replace template.
var tagExpr = regexp2.MustCompile(`\{(\w+)\}`, regexp2.None)

// Transform is a pattern with a replace template and a substitution per
// capture group.
type Transform struct {
	pattern.Pattern
	Replace string
	Subs    map[string]substitution.Substitution
}

// New creates a transform with substitutions synced to p's capture groups.
func New(p pattern.Pattern, replace string) Transform {
	t := Transform{Pattern: p, Replace: replace}
	t.Sync()
	return t
}

// Clone returns a deep copy, including each substitution's configuration.
func (t Transform) Clone() Transform {
	c := t
	if t.Subs != nil {
		c.Subs = make(map[string]substitution.Substitution, len(t.Subs))
		for tag, s := range t.Subs {
			c.Subs[tag] = s.Clone()
		}
	}
	return c
}

// Equal reports whether two transforms have the same configuration.
func (t Transform) Equal(o Transform) bool {
	if !t.Pattern.Equal(o.Pattern) || t.Replace != o.Replace || len(t.Subs) != len(o.Subs) {
		return false
	}
	for tag, s := range t.Subs {
		other, ok := o.Subs[tag]
		if !ok || !substitution.Equal(s, other) {
			return false
		}
	}
	return true
}

// Hash returns a hash consistent with Equal.
func (t Transform) Hash() uint64 {
	h := fnv.New64a()
	_ = binary.Write(h, binary.LittleEndian, t.Pattern.Hash())
	_, _ = h.Write([]byte(t.Replace))
	for _, tag := range t.tags() {
		_, _ = fmt.Fprintf(h, "\x00%s\x00", tag)
		if s := t.Subs[tag]; s != nil {
			_, _ = h.Write([]byte(s.ID()))
			if data, err := s.MarshalData(); err == nil {
				_, _ = h.Write(data)
			}
		}
	}
	return h.Sum64()
}

// Sync brings Subs in line with the pattern's current capture groups.
// Substitutions for groups that no longer exist are dropped, new groups get
// NoChange, and existing entries are kept. Call it after changing the pattern.
func (t *Transform) Sync() {
	names := t.Pattern.GroupNames()
	subs := make(map[string]substitution.Substitution, len(names))
	for _, name := range names {
		if s, ok := t.Subs[name]; ok {
			subs[name] = s
		} else {
			subs[name] = substitution.NoChange{}
		}
	}
	t.Subs = subs
}

// Validate reports why the transform cannot be applied, or nil.
func (t Transform) Validate() error {
	return t.validate(t.Pattern.Matcher())
}

func (t Transform) validate(m *pattern.Matcher) error {
	if err := m.Err(); err != nil {
		return err
	}
	for _, tag := range templateTags(t.Replace) {
		if !m.HasGroup(tag.name) {
			return fmt.Errorf("%w {%s} in %q", ErrUnknownTag, tag.name, t.Replace)
		}
	}
	return nil
}

// IsValid reports whether the pattern compiles and every template tag is one
// of its capture groups.
func (t Transform) IsValid() bool {
	return t.Validate() == nil
}

// Apply transforms text using the shared compiled pattern.
func (t Transform) Apply(text string) Result {
	return t.Compile().Apply(text)
}

// ApplyString transforms text and returns the result only.
func (t Transform) ApplyString(text string) string {
	return t.Compile().ApplyString(text)
}

// String describes the transform for diagnostics.
func (t Transform) String() string {
	return fmt.Sprintf("%s -> %q", t.Pattern, t.Replace)
}

func (t Transform) tags() []string {
	return slices.Sorted(maps.Keys(t.Subs))
}

// templateTag is a {name} placeholder at a rune offset in the template.
type templateTag struct {
	name   string
	offset int
	length int
}

func templateTags(replace string) []templateTag {
	var tags []templateTag
	m, err := tagExpr.FindStringMatch(replace)
	for err == nil && m != nil {
		tags = append(tags, templateTag{
			name:   m.GroupByNumber(1).String(),
			offset: m.Index,
			length: m.Length,
		})
		m, err = tagExpr.FindNextMatch(m)
	}
	return tags
}
