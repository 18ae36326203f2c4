package testutil

import (
	"sync"

	"github.com/psryland/rylogic-code-sub008/pkg/types"
)

// MockLineProcessor is a mock implementation of interfaces.LineProcessor for testing.
// It admits every line unless told otherwise and returns it unchanged.
type MockLineProcessor struct {
	mu               sync.Mutex
	reject           map[string]bool
	processCallCount int
	numbers          []int
}

// NewMockLineProcessor creates a new mock line processor that rejects the given lines
func NewMockLineProcessor(reject ...string) *MockLineProcessor {
	m := &MockLineProcessor{reject: make(map[string]bool)}
	for _, line := range reject {
		m.reject[line] = true
	}
	return m
}

// Process implements the LineProcessor interface
func (m *MockLineProcessor) Process(number int, line string) (types.Line, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processCallCount++
	m.numbers = append(m.numbers, number)
	if m.reject[line] {
		return types.Line{}, false
	}
	return types.Line{Number: number, Text: line, Original: line}, true
}

// SetReject sets whether Process rejects line
func (m *MockLineProcessor) SetReject(line string, reject bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reject[line] = reject
}

// GetProcessCallCount returns how many times Process was called
func (m *MockLineProcessor) GetProcessCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processCallCount
}

// GetNumbers returns the line numbers Process was called with
func (m *MockLineProcessor) GetNumbers() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.numbers...)
}
