package pattern

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/dlclark/regexp2"
)

// DefaultMatchTimeout bounds a single regex evaluation.
const DefaultMatchTimeout = time.Second

// Options controls how patterns are compiled.
type Options struct {
	// MatchTimeout aborts a single match attempt that runs longer than this.
	// Zero disables the limit.
	MatchTimeout time.Duration
}

// DefaultOptions returns the options used by Pattern.Compile.
func DefaultOptions() Options {
	return Options{MatchTimeout: DefaultMatchTimeout}
}

// CompileError is returned when a pattern does not compile.
type CompileError struct {
	// Regex is the rendered regular expression that was compiled.
	Regex string
	Err   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Regex, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

var (
	// tagExpr finds escaped capture tags like \{name}.
	tagExpr = regexp2.MustCompile(`\\\{(\w+)\}`, regexp2.None)
)

// Compile compiles the pattern with the default options.
func (p Pattern) Compile() *Matcher {
	return p.CompileWith(DefaultOptions())
}

// CompileWith compiles the pattern. The returned matcher is never nil;
// compile failures are reported by Matcher.Err.
func (p Pattern) CompileWith(opts Options) *Matcher {
	m := &Matcher{pattern: p, regex: Render(p)}

	flags := regexp2.None
	if p.IgnoreCase {
		flags |= regexp2.IgnoreCase
	}
	re, err := compileRegex(m.regex, flags)
	if err != nil {
		m.err = &CompileError{Regex: m.regex, Err: err}
		return m
	}
	if opts.MatchTimeout > 0 {
		re.MatchTimeout = opts.MatchTimeout
	}
	m.re = re
	m.names = re.GetGroupNames()
	return m
}

// compileRegex compiles expr, turning engine panics into errors.
func compileRegex(expr string, flags regexp2.RegexOptions) (re *regexp2.Regexp, err error) {
	defer func() {
		if r := recover(); r != nil {
			re = nil
			err = fmt.Errorf("regex engine panic: %v", r)
		}
	}()
	return regexp2.Compile(expr, flags)
}

// Render returns the regular expression equivalent to the pattern.
func Render(p Pattern) string {
	expr := p.Expr
	if p.Kind != RegularExpression {
		expr = renderLiteral(expr, p.Kind == Wildcard)
	}
	if p.WholeLine {
		expr = "^(?:" + expr + ")$"
	}
	return expr
}

func renderLiteral(expr string, wildcard bool) string {
	expr = escape(collapseSpace(expr))
	if wildcard {
		expr = strings.ReplaceAll(expr, `\*`, `.*`)
		expr = strings.ReplaceAll(expr, `\?`, `.`)
	}
	if replaced, err := tagExpr.Replace(expr, "(?<${1}>.*)", -1, -1); err == nil {
		expr = replaced
	}
	expr = strings.ReplaceAll(expr, `\ `, `\s+`)
	if strings.HasSuffix(expr, `\s+`) {
		expr = strings.TrimSuffix(expr, `\s+`) + `(?:$|\s)`
	}
	return expr
}

// collapseSpace replaces each run of whitespace with a single space.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// escape quotes regex metacharacters the way .NET Regex.Escape does:
// '}' and ']' are left alone and white space is escaped.
func escape(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		switch r {
		case '\\', '*', '+', '?', '|', '{', '[', '(', ')', '^', '$', '.', '#', ' ':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\f':
			b.WriteString(`\f`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
