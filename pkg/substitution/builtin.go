package substitution

import "strings"

// NoChange returns the captured text as is.
type NoChange struct{}

func (NoChange) ID() string                      { return "NoChange" }
func (NoChange) Name() string                    { return "No Change" }
func (NoChange) Apply(text string) string        { return text }
func (NoChange) Clone() Substitution             { return NoChange{} }
func (NoChange) MarshalData() ([]byte, error)    { return nil, nil }
func (NoChange) UnmarshalData(data []byte) error { return nil }

// ToLower lower cases the captured text.
type ToLower struct{}

func (ToLower) ID() string                      { return "ToLower" }
func (ToLower) Name() string                    { return "Lower Case" }
func (ToLower) Apply(text string) string        { return strings.ToLower(text) }
func (ToLower) Clone() Substitution             { return ToLower{} }
func (ToLower) MarshalData() ([]byte, error)    { return nil, nil }
func (ToLower) UnmarshalData(data []byte) error { return nil }

// ToUpper upper cases the captured text.
type ToUpper struct{}

func (ToUpper) ID() string                      { return "ToUpper" }
func (ToUpper) Name() string                    { return "Upper Case" }
func (ToUpper) Apply(text string) string        { return strings.ToUpper(text) }
func (ToUpper) Clone() Substitution             { return ToUpper{} }
func (ToUpper) MarshalData() ([]byte, error)    { return nil, nil }
func (ToUpper) UnmarshalData(data []byte) error { return nil }
