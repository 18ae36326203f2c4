package pattern

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// ImportError reports a serialized element that could not be read.
type ImportError struct {
	Element string
	Err     error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import %s: %v", e.Element, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// Fields holds the serialized child elements shared by every pattern type.
// Other packages embed it in their own element structs.
type Fields struct {
	Expr       *string `xml:"Expr"`
	Active     *string `xml:"Active"`
	PatnType   *string `xml:"PatnType"`
	IgnoreCase *string `xml:"IgnoreCase"`
	Invert     *string `xml:"Invert"`
	WholeLine  *string `xml:"WholeLine"`
}

// FieldsOf returns the serialized form of p.
func FieldsOf(p Pattern) Fields {
	kind := p.Kind.String()
	return Fields{
		Expr:       &p.Expr,
		Active:     FormatBool(p.Active),
		PatnType:   &kind,
		IgnoreCase: FormatBool(p.IgnoreCase),
		Invert:     FormatBool(p.Invert),
		WholeLine:  FormatBool(p.WholeLine),
	}
}

// Pattern converts the serialized form back. Expr and PatnType are required;
// missing flags take their defaults.
func (f Fields) Pattern() (Pattern, error) {
	p := Default()
	if f.Expr == nil {
		return p, errors.New("missing Expr")
	}
	if f.PatnType == nil {
		return p, errors.New("missing PatnType")
	}
	p.Expr = *f.Expr

	kind, err := ParseKind(*f.PatnType)
	if err != nil {
		return p, err
	}
	p.Kind = kind

	for _, b := range []struct {
		name string
		src  *string
		dst  *bool
	}{
		{"Active", f.Active, &p.Active},
		{"IgnoreCase", f.IgnoreCase, &p.IgnoreCase},
		{"Invert", f.Invert, &p.Invert},
		{"WholeLine", f.WholeLine, &p.WholeLine},
	} {
		if b.src == nil {
			continue
		}
		v, err := ParseBool(*b.src)
		if err != nil {
			return p, fmt.Errorf("%s: %w", b.name, err)
		}
		*b.dst = v
	}
	return p, nil
}

// FormatBool returns "True" or "False".
func FormatBool(b bool) *string {
	s := "False"
	if b {
		s = "True"
	}
	return &s
}

// ParseBool parses "True"/"False" in any case.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// MarshalXML writes the pattern's child elements.
func (p Pattern) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	return e.EncodeElement(FieldsOf(p), start)
}

// UnmarshalXML reads a pattern element.
func (p *Pattern) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var f Fields
	if err := d.DecodeElement(&f, &start); err != nil {
		return err
	}
	v, err := f.Pattern()
	if err != nil {
		return &ImportError{Element: start.Name.Local, Err: err}
	}
	*p = v
	return nil
}

type filterElem struct {
	Fields
	IfMatch *string `xml:"IfMatch"`
}

// MarshalXML writes the filter's child elements.
func (f Filter) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	ifMatch := f.IfMatch.String()
	return e.EncodeElement(filterElem{Fields: FieldsOf(f.Pattern), IfMatch: &ifMatch}, start)
}

// UnmarshalXML reads a filter element.
func (f *Filter) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var x filterElem
	if err := d.DecodeElement(&x, &start); err != nil {
		return err
	}
	fail := func(err error) error {
		return &ImportError{Element: start.Name.Local, Err: err}
	}

	p, err := x.Fields.Pattern()
	if err != nil {
		return fail(err)
	}
	if x.IfMatch == nil {
		return fail(errors.New("missing IfMatch"))
	}
	ifMatch, err := ParseIfMatch(*x.IfMatch)
	if err != nil {
		return fail(err)
	}
	*f = NewFilter(p, ifMatch)
	return nil
}

type highlightElem struct {
	Fields
	ForeColour *string `xml:"ForeColour"`
	BackColour *string `xml:"BackColour"`
	Binary     *string `xml:"Binary"`
}

// MarshalXML writes the highlight's child elements.
func (h Highlight) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	fore, back := h.Foreground.String(), h.Background.String()
	return e.EncodeElement(highlightElem{
		Fields:     FieldsOf(h.Pattern),
		ForeColour: &fore,
		BackColour: &back,
		Binary:     FormatBool(h.BinaryMatch),
	}, start)
}

// UnmarshalXML reads a highlight element. Missing colours keep the defaults.
func (h *Highlight) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var x highlightElem
	if err := d.DecodeElement(&x, &start); err != nil {
		return err
	}
	fail := func(err error) error {
		return &ImportError{Element: start.Name.Local, Err: err}
	}

	p, err := x.Fields.Pattern()
	if err != nil {
		return fail(err)
	}
	v := NewHighlight(p)
	if x.ForeColour != nil {
		if v.Foreground, err = ParseColour(*x.ForeColour); err != nil {
			return fail(fmt.Errorf("ForeColour: %w", err))
		}
	}
	if x.BackColour != nil {
		if v.Background, err = ParseColour(*x.BackColour); err != nil {
			return fail(fmt.Errorf("BackColour: %w", err))
		}
	}
	if x.Binary != nil {
		if v.BinaryMatch, err = ParseBool(*x.Binary); err != nil {
			return fail(fmt.Errorf("Binary: %w", err))
		}
	}
	*h = v
	return nil
}

// MarshalElement serializes v as a single element called name.
func MarshalElement(name string, v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.EncodeElement(v, xml.StartElement{Name: xml.Name{Local: name}}); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalList serializes items as children called item of an element called root.
func MarshalList[T any](root, item string, items []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	start := xml.StartElement{Name: xml.Name{Local: root}}
	if err := enc.EncodeToken(start); err != nil {
		return nil, err
	}
	for i, v := range items {
		if err := enc.EncodeElement(v, xml.StartElement{Name: xml.Name{Local: item}}); err != nil {
			return nil, fmt.Errorf("%s %d: %w", item, i, err)
		}
	}
	if err := enc.EncodeToken(start.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalList reads every child of the document's root element as a T.
// Children that fail to import are skipped and reported in skipped.
// A document that is not well formed yields an empty list.
func UnmarshalList[T any, PT interface {
	*T
	xml.Unmarshaler
}](data []byte) (items []T, skipped []error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	broken := func(err error) ([]T, []error) {
		return []T{}, []error{&ImportError{Element: "document", Err: err}}
	}

	// Find the root element.
	for {
		tok, err := d.Token()
		if err != nil {
			return broken(err)
		}
		if _, ok := tok.(xml.StartElement); ok {
			break
		}
	}

	items = []T{}
	for {
		tok, err := d.Token()
		if err != nil {
			return broken(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var v T
			if err := d.DecodeElement(PT(&v), &t); err != nil {
				var ie *ImportError
				if !errors.As(err, &ie) {
					return broken(err)
				}
				skipped = append(skipped, ie)
				continue
			}
			items = append(items, v)
		case xml.EndElement:
			return items, skipped
		}
	}
}
