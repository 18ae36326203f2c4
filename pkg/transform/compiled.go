package transform

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/psryland/rylogic-code-sub008/pkg/pattern"
	"github.com/psryland/rylogic-code-sub008/pkg/substitution"
)

// Result is a transformed line with the captures that produced it.
// Source spans index the input, Dest spans index Text.
type Result struct {
	Text   string
	Source []pattern.Capture
	Dest   []pattern.Capture
}

// Compiled is a transform prepared for applying to many lines.
// It does not change after creation and is safe for concurrent use.
type Compiled struct {
	matcher *pattern.Matcher
	replace string
	subs    map[string]substitution.Substitution
	tags    []templateTag
	err     error
}

// Compile prepares the transform using the shared compiled pattern.
// The substitutions are copied, so later edits to t do not affect the result.
func (t Transform) Compile() *Compiled {
	return t.compiled(t.Pattern.Matcher())
}

// CompileWith prepares the transform with its own matcher compiled with opts.
func (t Transform) CompileWith(opts pattern.Options) *Compiled {
	return t.compiled(t.Pattern.CompileWith(opts))
}

func (t Transform) compiled(m *pattern.Matcher) *Compiled {
	c := &Compiled{
		matcher: m,
		replace: t.Replace,
		subs:    make(map[string]substitution.Substitution, len(t.Subs)),
		err:     t.validate(m),
	}
	for tag, s := range t.Subs {
		c.subs[tag] = s.Clone()
	}
	// Tags that are not capture groups stay in the output as literal text.
	for _, tag := range templateTags(t.Replace) {
		if m.HasGroup(tag.name) {
			c.tags = append(c.tags, tag)
		}
	}
	return c
}

// Matcher returns the compiled pattern.
func (c *Compiled) Matcher() *pattern.Matcher {
	return c.matcher
}

// IsValid reports whether the transform can be applied.
func (c *Compiled) IsValid() bool {
	return c.err == nil
}

// Err returns the reason the transform is invalid, or nil.
func (c *Compiled) Err() error {
	return c.err
}

// IsMatch reports whether text would be transformed.
func (c *Compiled) IsMatch(text string) bool {
	return c.matcher.IsMatch(text)
}

// Apply transforms the first match in text and records where each capture
// came from and where its substituted value landed. Text that does not match
// is returned unchanged with no captures.
func (c *Compiled) Apply(text string) Result {
	res := Result{Text: text}
	src, ok := c.match(text)
	if !ok {
		return res
	}
	res.Source = src

	byID := make(map[string]pattern.Capture, len(src))
	for _, g := range src {
		byID[g.ID] = g
	}

	in := []rune(text)
	whole := src[0].Span
	out := make([]rune, 0, len(in)+len(c.replace))
	out = append(out, in[:whole.Offset]...)
	out = append(out, []rune(c.replace)...)
	out = append(out, in[whole.End():]...)

	ofs := 0
	for _, tag := range c.tags {
		value := []rune(c.sub(tag.name).Apply(byID[tag.name].Text))
		at := whole.Offset + tag.offset + ofs

		out = slices.Replace(out, at, at+tag.length, value...)
		res.Dest = append(res.Dest, pattern.Capture{
			ID:   tag.name,
			Text: string(value),
			Span: pattern.Span{Offset: at, Length: len(value)},
		})
		ofs += len(value) - tag.length
	}
	res.Text = string(out)

	// Order the destination captures like their source groups.
	order := make(map[string]int, len(src))
	for i, g := range src {
		if _, seen := order[g.ID]; !seen {
			order[g.ID] = i
		}
	}
	slices.SortStableFunc(res.Dest, func(a, b pattern.Capture) int {
		return order[a.ID] - order[b.ID]
	})
	return res
}

// ApplyString transforms text like Apply without tracking captures.
func (c *Compiled) ApplyString(text string) string {
	src, ok := c.match(text)
	if !ok {
		return text
	}

	whole := src[0].Span
	prefix, rest := splitRunes(text, whole.Offset)
	_, suffix := splitRunes(rest, whole.Length)

	var b strings.Builder
	b.Grow(len(text) + len(c.replace))
	b.WriteString(prefix)

	// Copy the template, replacing each tag with its substituted capture.
	tmpl := []rune(c.replace)
	pos := 0
	for _, tag := range c.tags {
		b.WriteString(string(tmpl[pos:tag.offset]))
		b.WriteString(c.sub(tag.name).Apply(captureText(src, tag.name)))
		pos = tag.offset + tag.length
	}
	b.WriteString(string(tmpl[pos:]))
	b.WriteString(suffix)
	return b.String()
}

// match returns the groups of the first match, group 0 first.
func (c *Compiled) match(text string) ([]pattern.Capture, bool) {
	if c.err != nil || !c.matcher.IsMatch(text) {
		return nil, false
	}
	src := c.matcher.Find(text)
	if len(src) == 0 {
		// Inverted patterns match lines with no regex match; there is
		// nothing to substitute.
		return nil, false
	}
	return src, true
}

func (c *Compiled) sub(tag string) substitution.Substitution {
	if s, ok := c.subs[tag]; ok && s != nil {
		return s
	}
	return substitution.NoChange{}
}

func captureText(caps []pattern.Capture, id string) string {
	for _, c := range caps {
		if c.ID == id {
			return c.Text
		}
	}
	return ""
}

// splitRunes splits s after n runes.
func splitRunes(s string, n int) (string, string) {
	i := 0
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i], s[i:]
}
