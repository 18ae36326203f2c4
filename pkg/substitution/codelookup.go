package substitution

import (
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
)

// CodeLookup replaces captured codes with values from a table.
// Text with no table entry is returned unchanged.
type CodeLookup struct {
	values map[string]string
}

// NewCodeLookup creates an empty lookup table.
func NewCodeLookup() *CodeLookup {
	return &CodeLookup{values: make(map[string]string)}
}

func (c *CodeLookup) ID() string   { return "CodeLookup" }
func (c *CodeLookup) Name() string { return "Code Lookup" }

// Apply returns the value for text, or text itself.
func (c *CodeLookup) Apply(text string) string {
	if v, ok := c.values[text]; ok {
		return v
	}
	return text
}

// Clone copies the table.
func (c *CodeLookup) Clone() Substitution {
	return &CodeLookup{values: maps.Clone(c.values)}
}

// Set adds or replaces one entry.
func (c *CodeLookup) Set(code, value string) {
	if c.values == nil {
		c.values = make(map[string]string)
	}
	c.values[code] = value
}

// Delete removes an entry.
func (c *CodeLookup) Delete(code string) {
	delete(c.values, code)
}

// Len returns the number of entries.
func (c *CodeLookup) Len() int {
	return len(c.values)
}

// Codes returns the table's codes in sorted order.
func (c *CodeLookup) Codes() []string {
	return slices.Sorted(maps.Keys(c.values))
}

// Value returns the value for code.
func (c *CodeLookup) Value(code string) (string, bool) {
	v, ok := c.values[code]
	return v, ok
}

type codeValue struct {
	Code  string `xml:"Code"`
	Value string `xml:"Value"`
}

type codeValues struct {
	XMLName xml.Name    `xml:"CodeValues"`
	Items   []codeValue `xml:"CodeValue"`
}

// MarshalData writes the table as CodeValues/CodeValue{Code,Value}, sorted by code.
func (c *CodeLookup) MarshalData() ([]byte, error) {
	var cv codeValues
	for _, code := range c.Codes() {
		cv.Items = append(cv.Items, codeValue{Code: code, Value: c.values[code]})
	}
	return xml.Marshal(cv)
}

// UnmarshalData replaces the table with the serialized one.
func (c *CodeLookup) UnmarshalData(data []byte) error {
	values := make(map[string]string)
	if len(strings.TrimSpace(string(data))) != 0 {
		var cv codeValues
		if err := xml.Unmarshal(data, &cv); err != nil {
			return fmt.Errorf("read code values: %w", err)
		}
		for _, item := range cv.Items {
			values[item.Code] = item.Value
		}
	}
	c.values = values
	return nil
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Imported int
	Skipped  int
}

// Partial reports whether some rows were skipped.
func (r ImportResult) Partial() bool {
	return r.Skipped > 0
}

// ImportCSV replaces the table with two column (code, value) rows read from r.
// A leading "Code,Value" header is ignored. Rows without exactly two fields,
// with an empty code, or repeating an earlier code are skipped.
func (c *CodeLookup) ImportCSV(r io.Reader) (ImportResult, error) {
	var res ImportResult
	values := make(map[string]string)

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	for row := 0; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("read code table: %w", err)
		}
		if row == 0 && len(record) == 2 &&
			strings.EqualFold(record[0], "code") && strings.EqualFold(record[1], "value") {
			continue
		}
		if len(record) != 2 || record[0] == "" {
			res.Skipped++
			continue
		}
		if _, dup := values[record[0]]; dup {
			res.Skipped++
			continue
		}
		values[record[0]] = record[1]
		res.Imported++
	}

	c.values = values
	return res, nil
}

// ExportCSV writes the table as a header and code, value rows sorted by code.
func (c *CodeLookup) ExportCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Code", "Value"}); err != nil {
		return err
	}
	for _, code := range c.Codes() {
		if err := writer.Write([]string{code, c.values[code]}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
