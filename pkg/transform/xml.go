package transform

import (
	"encoding/xml"
	"errors"
	"fmt"

	"github.com/psryland/rylogic-code-sub008/pkg/pattern"
	"github.com/psryland/rylogic-code-sub008/pkg/substitution"
)

type transformElem struct {
	pattern.Fields
	Replace *string   `xml:"Replace"`
	Subs    *subsElem `xml:"Subs"`
}

type subsElem struct {
	Items []subElem `xml:"Sub"`
}

type subElem struct {
	Tag     string  `xml:"Tag"`
	Name    string  `xml:"Name"`
	SubData subData `xml:"SubData"`
}

type subData struct {
	Inner []byte `xml:",innerxml"`
}

// MarshalXML writes the transform's child elements. Subs are written in
// tag order.
func (t Transform) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	subs := &subsElem{}
	for _, tag := range t.tags() {
		s := t.Subs[tag]
		if s == nil {
			continue
		}
		data, err := s.MarshalData()
		if err != nil {
			return fmt.Errorf("sub %s: %w", tag, err)
		}
		subs.Items = append(subs.Items, subElem{Tag: tag, Name: s.Name(), SubData: subData{Inner: data}})
	}
	return e.EncodeElement(transformElem{
		Fields:  pattern.FieldsOf(t.Pattern),
		Replace: &t.Replace,
		Subs:    subs,
	}, start)
}

// UnmarshalXML reads a transform element, creating each substitution from
// the default registry.
func (t *Transform) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var x transformElem
	if err := d.DecodeElement(&x, &start); err != nil {
		return err
	}
	fail := func(err error) error {
		return &pattern.ImportError{Element: start.Name.Local, Err: err}
	}

	p, err := x.Fields.Pattern()
	if err != nil {
		return fail(err)
	}
	if x.Replace == nil {
		return fail(errors.New("missing Replace"))
	}

	v := Transform{Pattern: p, Replace: *x.Replace, Subs: map[string]substitution.Substitution{}}
	if x.Subs != nil {
		for _, item := range x.Subs.Items {
			if item.Tag == "" {
				return fail(errors.New("sub without Tag"))
			}
			s, err := substitution.Default().New(item.Name)
			if err != nil {
				return fail(fmt.Errorf("sub %s: %w", item.Tag, err))
			}
			if err := s.UnmarshalData(item.SubData.Inner); err != nil {
				return fail(fmt.Errorf("sub %s: %w", item.Tag, err))
			}
			v.Subs[item.Tag] = s
		}
	}
	*t = v
	return nil
}
