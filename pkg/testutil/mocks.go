package testutil

import (
	"strings"
	"sync"

	"github.com/psryland/rylogic-code-sub008/pkg/substitution"
	"github.com/psryland/rylogic-code-sub008/pkg/types"
)

// MockLineSink is a thread-safe mock implementation of interfaces.LineSink for testing
type MockLineSink struct {
	mu       sync.Mutex
	lines    []types.Line
	attempts []types.Line // Track all write attempts
	writeErr error
}

// NewMockLineSink creates a new mock line sink
func NewMockLineSink() *MockLineSink {
	return &MockLineSink{
		lines:    []types.Line{},
		attempts: []types.Line{},
	}
}

// WriteLine implements the LineSink interface
func (m *MockLineSink) WriteLine(line types.Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Always track the attempt
	m.attempts = append(m.attempts, line)

	if m.writeErr != nil {
		return m.writeErr
	}

	m.lines = append(m.lines, line)
	return nil
}

// GetLines returns a copy of successfully written lines
func (m *MockLineSink) GetLines() []types.Line {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]types.Line, len(m.lines))
	copy(result, m.lines)
	return result
}

// GetTexts returns the text of each successfully written line
func (m *MockLineSink) GetTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]string, len(m.lines))
	for i, l := range m.lines {
		result[i] = l.Text
	}
	return result
}

// GetAttempts returns a copy of all attempted writes (including failures)
func (m *MockLineSink) GetAttempts() []types.Line {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]types.Line, len(m.attempts))
	copy(result, m.attempts)
	return result
}

// SetError sets the error to return on WriteLine calls
func (m *MockLineSink) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Clear resets the mock state
func (m *MockLineSink) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = []types.Line{}
	m.attempts = []types.Line{}
	m.writeErr = nil
}

// RecordingSubstitution is a substitution that records every value it is
// applied to and wraps it in brackets.
type RecordingSubstitution struct {
	mu    sync.Mutex
	calls []string
}

// NewRecordingSubstitution creates a new recording substitution
func NewRecordingSubstitution() *RecordingSubstitution {
	return &RecordingSubstitution{}
}

func (r *RecordingSubstitution) ID() string   { return "Recording" }
func (r *RecordingSubstitution) Name() string { return "Recording" }

// Apply implements the Substitution interface
func (r *RecordingSubstitution) Apply(text string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, text)
	return "[" + text + "]"
}

// Clone returns the same instance so calls made through copies are recorded together
func (r *RecordingSubstitution) Clone() substitution.Substitution {
	return r
}

// MarshalData implements the Substitution interface
func (r *RecordingSubstitution) MarshalData() ([]byte, error) {
	return nil, nil
}

// UnmarshalData implements the Substitution interface
func (r *RecordingSubstitution) UnmarshalData(data []byte) error {
	return nil
}

// GetCalls returns the values Apply was called with, in order
func (r *RecordingSubstitution) GetCalls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// String joins the recorded calls for diagnostics
func (r *RecordingSubstitution) String() string {
	return strings.Join(r.GetCalls(), ",")
}
