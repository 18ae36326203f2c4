package pattern

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Colour is an opaque RGB colour serialized as "#rrggbb".
type Colour struct {
	colorful.Color
}

// MustColour parses s and panics on failure. Intended for constants.
func MustColour(s string) Colour {
	c, err := ParseColour(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseColour parses "#rgb", "#rrggbb" or "#aarrggbb" (alpha is dropped).
// The leading '#' is optional.
func ParseColour(s string) (Colour, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) == 9 {
		s = "#" + s[3:]
	}
	c, err := colorful.Hex(strings.ToLower(s))
	if err != nil {
		return Colour{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return Colour{Color: c}, nil
}

// String returns the "#rrggbb" form.
func (c Colour) String() string {
	return c.Hex()
}

// Equal compares colours at 8 bits per channel.
func (c Colour) Equal(o Colour) bool {
	return c.Hex() == o.Hex()
}

// Highlight is a pattern with the colours used to draw what it matches.
type Highlight struct {
	Pattern
	Foreground Colour
	Background Colour
	// BinaryMatch highlights the whole line when anything on it matches.
	BinaryMatch bool
}

// NewHighlight returns a highlight over p with the default colours.
func NewHighlight(p Pattern) Highlight {
	return Highlight{
		Pattern:    p,
		Foreground: MustColour("#ffffff"),
		Background: MustColour("#b22222"),
	}
}

// Clone returns a copy of the highlight.
func (h Highlight) Clone() Highlight {
	return h
}

// Equal reports whether two highlights have the same configuration.
func (h Highlight) Equal(o Highlight) bool {
	return h.Pattern.Equal(o.Pattern) &&
		h.Foreground.Equal(o.Foreground) &&
		h.Background.Equal(o.Background) &&
		h.BinaryMatch == o.BinaryMatch
}

// Hash returns a hash consistent with Equal.
func (h Highlight) Hash() uint64 {
	f := fnv.New64a()
	_, _ = fmt.Fprintf(f, "%s|%s|%s|%t", h.Pattern.key(), h.Foreground, h.Background, h.BinaryMatch)
	return f.Sum64()
}
