package substitution

import (
	"fmt"
	"strings"
	"unicode"
)

// Range is a [Start, Start+Length) span of rune positions.
type Range struct {
	Start  int
	Length int
}

// End returns the position just past the range.
func (r Range) End() int {
	return r.Start + r.Length
}

// CaseRule is the case change applied to one output character.
type CaseRule int

const (
	CaseKeep CaseRule = iota
	CaseUpper
	CaseLower
)

func (c CaseRule) String() string {
	switch c {
	case CaseUpper:
		return "ToUpper"
	case CaseLower:
		return "ToLower"
	default:
		return "NoChange"
	}
}

func (c CaseRule) apply(r rune) rune {
	switch c {
	case CaseUpper:
		return unicode.ToUpper(r)
	case CaseLower:
		return unicode.ToLower(r)
	default:
		return r
	}
}

// Block maps one character class run of the output template onto the run
// of the same class in the source template. A block whose class does not
// appear in the source is a literal: its output characters are copied as is.
type Block struct {
	Class   rune
	Dst     Range
	Src     Range
	Cases   []CaseRule
	Literal []rune
}

// IsLiteral reports whether the block copies template text instead of input.
func (b Block) IsLiteral() bool {
	return b.Literal != nil
}

// MappingError reports a character class that is split into several runs.
type MappingError struct {
	Class rune
	Side  string // "output" or "source"
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("Character block '%c' is not contiguous in the %s mapping", e.Class, e.Side)
}

// BuildMapping derives the block mapping that rearranges text shaped like
// src into the shape of dst. Characters are grouped into classes ignoring
// case, and each class must form a single run in both templates.
func BuildMapping(src, dst string) ([]Block, error) {
	s, d := []rune(src), []rune(dst)
	var blocks []Block
	seen := make(map[rune]bool)

	for i := 0; i < len(d); {
		if unicode.IsSpace(d[i]) {
			i++
			continue
		}

		ch := unicode.ToLower(d[i])
		start := i
		for i < len(d) && unicode.ToLower(d[i]) == ch {
			i++
		}
		if seen[ch] {
			return nil, &MappingError{Class: ch, Side: "output"}
		}
		seen[ch] = true

		block := Block{Class: ch, Dst: Range{Start: start, Length: i - start}}

		srcRun, ok, err := classRun(s, ch)
		if err != nil {
			return nil, err
		}
		if !ok {
			block.Literal = append([]rune{}, d[start:i]...)
			blocks = append(blocks, block)
			continue
		}
		block.Src = srcRun

		block.Cases = make([]CaseRule, block.Dst.Length)
		for k := range block.Cases {
			sc := s[srcRun.Start+k%srcRun.Length]
			dc := d[start+k]
			switch {
			case sc == dc || !unicode.IsLetter(sc):
				block.Cases[k] = CaseKeep
			case sc == unicode.ToLower(sc):
				block.Cases[k] = CaseUpper
			default:
				block.Cases[k] = CaseLower
			}
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

// classRun finds the single run of class ch in s.
func classRun(s []rune, ch rune) (Range, bool, error) {
	start := -1
	for j, r := range s {
		if unicode.ToLower(r) == ch {
			start = j
			break
		}
	}
	if start < 0 {
		return Range{}, false, nil
	}
	end := start
	for end < len(s) && unicode.ToLower(s[end]) == ch {
		end++
	}
	for _, r := range s[end:] {
		if unicode.ToLower(r) == ch {
			return Range{}, false, &MappingError{Class: ch, Side: "source"}
		}
	}
	return Range{Start: start, Length: end - start}, true, nil
}

// ApplyMapping rearranges text using blocks. Input shorter than the source
// template truncates the output instead of failing.
func ApplyMapping(text string, blocks []Block) string {
	in := []rune(text)
	var out []rune

	put := func(pos int, r rune) {
		for len(out) < pos {
			out = append(out, ' ')
		}
		out = append(out, r)
	}

	for _, b := range blocks {
		if b.IsLiteral() {
			for i, r := range b.Literal {
				put(b.Dst.Start+i, r)
			}
			continue
		}
		if b.Src.Start >= len(in) {
			continue
		}
		n := min(b.Dst.Length, len(in)-b.Src.Start)
		for i := range n {
			r := in[b.Src.Start+i%b.Src.Length]
			put(b.Dst.Start+i, b.Cases[i].apply(r))
		}
	}
	return string(out)
}

// Swizzle rearranges and recases captured text by example: the source
// template describes the shape of the input and the output template the
// shape of the result, e.g. "aaaa bbbbb" -> "BBBBB, Aaaa".
type Swizzle struct {
	src    string
	dst    string
	blocks []Block
}

// NewSwizzle creates a configured swizzle.
func NewSwizzle(src, dst string) (*Swizzle, error) {
	s := &Swizzle{}
	if err := s.Configure(src, dst); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Swizzle) ID() string   { return "Swizzle" }
func (s *Swizzle) Name() string { return "Swizzle" }

// Src returns the source template.
func (s *Swizzle) Src() string { return s.src }

// Dst returns the output template.
func (s *Swizzle) Dst() string { return s.dst }

// Blocks returns a copy of the current mapping.
func (s *Swizzle) Blocks() []Block {
	return append([]Block(nil), s.blocks...)
}

// Configure replaces the templates. On error the previous configuration is kept.
func (s *Swizzle) Configure(src, dst string) error {
	blocks, err := BuildMapping(src, dst)
	if err != nil {
		return err
	}
	s.src, s.dst, s.blocks = src, dst, blocks
	return nil
}

// Apply rearranges text. An unconfigured swizzle returns text unchanged.
func (s *Swizzle) Apply(text string) string {
	if strings.TrimSpace(s.dst) == "" {
		return text
	}
	return ApplyMapping(text, s.blocks)
}

func (s *Swizzle) Clone() Substitution {
	return &Swizzle{src: s.src, dst: s.dst, blocks: s.Blocks()}
}

type swizzleData struct {
	Src string `xml:"Src"`
	Dst string `xml:"Dst"`
}

// MarshalData writes the templates as Src and Dst elements.
func (s *Swizzle) MarshalData() ([]byte, error) {
	return marshalElements(element{"Src", s.src}, element{"Dst", s.dst})
}

// UnmarshalData restores and validates the templates.
func (s *Swizzle) UnmarshalData(data []byte) error {
	var sd swizzleData
	if err := unmarshalElements(data, &sd); err != nil {
		return fmt.Errorf("read swizzle: %w", err)
	}
	return s.Configure(sd.Src, sd.Dst)
}
