package substitution

import (
	"bytes"
	"encoding/xml"
	"strings"
)

type element struct {
	name  string
	value any
}

// marshalElements encodes a sequence of sibling elements with no enclosing root.
func marshalElements(elems ...element) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	for _, e := range elems {
		if err := enc.EncodeElement(e.value, xml.StartElement{Name: xml.Name{Local: e.name}}); err != nil {
			return nil, err
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unmarshalElements decodes sibling elements written by marshalElements into v.
func unmarshalElements(data []byte, v any) error {
	if strings.TrimSpace(string(data)) == "" {
		return nil
	}
	wrapped := make([]byte, 0, len(data)+len("<SubData></SubData>"))
	wrapped = append(wrapped, "<SubData>"...)
	wrapped = append(wrapped, data...)
	wrapped = append(wrapped, "</SubData>"...)
	return xml.Unmarshal(wrapped, v)
}
