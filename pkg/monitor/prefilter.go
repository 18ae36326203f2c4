package monitor

import (
	"strings"
	"unicode"

	ac "github.com/petar-dambovaliev/aho-corasick"

	"github.com/psryland/rylogic-code-sub008/pkg/pattern"
)

// Prefilter is a literal gate in front of a list of patterns. Patterns that
// are plain literals are loaded into Aho-Corasick automatons; when a line
// contains none of those literals every literal pattern is known not to match
// and its regex need not run.
type Prefilter struct {
	exact    *ac.AhoCorasick
	folded   *ac.AhoCorasick
	eligible []bool
	count    int
}

// NewPrefilter builds a gate for patterns. The index of each pattern is the
// index used with Skip.
func NewPrefilter(patterns []pattern.Pattern) *Prefilter {
	pf := &Prefilter{eligible: make([]bool, len(patterns))}

	var exact, folded []string
	seen := make(map[string]bool)
	for i, p := range patterns {
		lit, ok := literalOf(p)
		if !ok {
			continue
		}
		pf.eligible[i] = true
		pf.count++

		key := lit
		if p.IgnoreCase {
			key = "i:" + strings.ToLower(lit)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		if p.IgnoreCase {
			folded = append(folded, lit)
		} else {
			exact = append(exact, lit)
		}
	}

	pf.exact = build(exact, false)
	pf.folded = build(folded, true)
	return pf
}

func build(literals []string, fold bool) *ac.AhoCorasick {
	if len(literals) == 0 {
		return nil
	}
	builder := ac.NewAhoCorasickBuilder(ac.Opts{
		AsciiCaseInsensitive: fold,
		MatchKind:            ac.LeftMostLongestMatch,
	})
	automaton := builder.Build(literals)
	return &automaton
}

// Len returns the number of patterns behind the gate.
func (pf *Prefilter) Len() int {
	if pf == nil {
		return 0
	}
	return pf.count
}

// Scan reports whether text contains any gated literal. With nothing gated it
// reports true.
func (pf *Prefilter) Scan(text string) bool {
	if pf.Len() == 0 {
		return true
	}
	if pf.exact != nil && len(pf.exact.FindAll(text)) > 0 {
		return true
	}
	return pf.folded != nil && len(pf.folded.FindAll(text)) > 0
}

// Skip reports whether pattern i can be skipped given the result of Scan.
func (pf *Prefilter) Skip(i int, found bool) bool {
	return !found && pf != nil && i < len(pf.eligible) && pf.eligible[i]
}

// literalOf returns the text a pattern must contain to match, if the pattern
// is a plain literal. Whitespace and capture tags compile to regex constructs.
// Case folded literals must be ASCII, less 'k' and 'i' which the regex engine
// also matches against the Kelvin sign and the dotted capital I.
func literalOf(p pattern.Pattern) (string, bool) {
	if !p.Active || p.Invert || p.Expr == "" {
		return "", false
	}
	switch p.Kind {
	case pattern.Substring:
	case pattern.Wildcard:
		if strings.ContainsAny(p.Expr, "*?") {
			return "", false
		}
	default:
		return "", false
	}
	for _, r := range p.Expr {
		if unicode.IsSpace(r) || r == '{' {
			return "", false
		}
		if p.IgnoreCase && (r > unicode.MaxASCII || r == 'k' || r == 'K' || r == 'i' || r == 'I') {
			return "", false
		}
	}
	return p.Expr, true
}
