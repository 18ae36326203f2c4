package monitor

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/psryland/rylogic-code-sub008/pkg/config"
	"github.com/psryland/rylogic-code-sub008/pkg/pattern"
	"github.com/psryland/rylogic-code-sub008/pkg/testutil"
	"github.com/psryland/rylogic-code-sub008/pkg/transform"
)

func TestOutputMonitor_HandleData(t *testing.T) {
	tests := []struct {
		name      string
		data      [][]byte
		reject    []string
		config    *config.Config
		wantTexts []string
		wantCalls int
	}{
		{
			name:      "single line",
			data:      [][]byte{[]byte("Error occurred\n")},
			config:    &config.Config{},
			wantTexts: []string{"Error occurred"},
			wantCalls: 1,
		},
		{
			name: "multiple lines",
			data: [][]byte{
				[]byte("Line 1\n"),
				[]byte("Error line\n"),
				[]byte("Line 3\n"),
			},
			config:    &config.Config{},
			wantTexts: []string{"Line 1", "Error line", "Line 3"},
			wantCalls: 3,
		},
		{
			name: "incomplete line buffering",
			data: [][]byte{
				[]byte("Partial "),
				[]byte("line with "),
				[]byte("Error\n"),
			},
			config:    &config.Config{},
			wantTexts: []string{"Partial line with Error"},
			wantCalls: 1,
		},
		{
			name:      "rejected lines are not written",
			data:      [][]byte{[]byte("keep\ndrop\nkeep too\n")},
			reject:    []string{"drop"},
			config:    &config.Config{},
			wantTexts: []string{"keep", "keep too"},
			wantCalls: 3,
		},
		{
			name:      "carriage returns trimmed",
			data:      [][]byte{[]byte("dos line\r\nunix line\n")},
			config:    &config.Config{},
			wantTexts: []string{"dos line", "unix line"},
			wantCalls: 2,
		},
		{
			name:      "escapes stripped",
			data:      [][]byte{[]byte("\x1b[31mred\x1b[0m text\n")},
			config:    &config.Config{StripANSI: true},
			wantTexts: []string{"red text"},
			wantCalls: 1,
		},
		{
			name:      "escapes kept",
			data:      [][]byte{[]byte("\x1b[31mred\n")},
			config:    &config.Config{},
			wantTexts: []string{"\x1b[31mred"},
			wantCalls: 1,
		},
		{
			name:      "empty lines counted",
			data:      [][]byte{[]byte("\n\n")},
			config:    &config.Config{},
			wantTexts: []string{"", ""},
			wantCalls: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			processor := testutil.NewMockLineProcessor(tt.reject...)
			sink := testutil.NewMockLineSink()

			monitor := NewOutputMonitor(tt.config, processor, sink)

			// Process data
			for _, data := range tt.data {
				monitor.HandleData(data)
			}

			// Check results
			texts := sink.GetTexts()
			if !reflect.DeepEqual(texts, tt.wantTexts) {
				t.Errorf("expected lines %q but got %q", tt.wantTexts, texts)
			}

			if processor.GetProcessCallCount() != tt.wantCalls {
				t.Errorf("expected %d process calls but got %d", tt.wantCalls, processor.GetProcessCallCount())
			}
		})
	}
}

func TestOutputMonitor_LineNumbers(t *testing.T) {
	processor := testutil.NewMockLineProcessor("b")
	sink := testutil.NewMockLineSink()
	monitor := NewOutputMonitor(&config.Config{}, processor, sink)

	monitor.HandleData([]byte("a\nb\nc\n"))

	// Numbers count rejected lines too
	if nums := processor.GetNumbers(); !reflect.DeepEqual(nums, []int{1, 2, 3}) {
		t.Errorf("expected numbers [1 2 3] but got %v", nums)
	}
	lines := sink.GetLines()
	if len(lines) != 2 || lines[0].Number != 1 || lines[1].Number != 3 {
		t.Errorf("unexpected lines %+v", lines)
	}
}

func TestOutputMonitor_HandleLine(t *testing.T) {
	processor := testutil.NewMockLineProcessor()
	sink := testutil.NewMockLineSink()

	monitor := NewOutputMonitor(&config.Config{}, processor, sink)

	// Test HandleLine
	monitor.HandleLine("test line")

	if texts := sink.GetTexts(); len(texts) != 1 || texts[0] != "test line" {
		t.Errorf("expected [test line] but got %q", texts)
	}
}

func TestOutputMonitor_Flush(t *testing.T) {
	processor := testutil.NewMockLineProcessor()
	sink := testutil.NewMockLineSink()

	monitor := NewOutputMonitor(&config.Config{}, processor, sink)

	// Add incomplete line
	monitor.HandleData([]byte("incomplete line without newline"))

	// Should have no output yet
	if len(sink.GetLines()) != 0 {
		t.Error("line written before flush")
	}

	// Flush should process the line
	monitor.Flush()

	texts := sink.GetTexts()
	if len(texts) != 1 || texts[0] != "incomplete line without newline" {
		t.Errorf("expected 1 line after flush but got %q", texts)
	}

	// A second flush has nothing to do
	monitor.Flush()
	if len(sink.GetLines()) != 1 {
		t.Error("expected flush to be idempotent")
	}
}

func TestOutputMonitor_SinkError(t *testing.T) {
	processor := testutil.NewMockLineProcessor()
	sink := testutil.NewMockLineSink()
	sink.SetError(errors.New("broken pipe"))

	monitor := NewOutputMonitor(&config.Config{}, processor, sink)

	// Should keep processing after write errors
	monitor.HandleData([]byte("one\ntwo\n"))

	if len(sink.GetAttempts()) != 2 {
		t.Errorf("expected 2 write attempts but got %d", len(sink.GetAttempts()))
	}
	if stats := monitor.Stats(); stats.Admitted != 2 {
		t.Errorf("expected 2 admitted lines but got %d", stats.Admitted)
	}
}

func TestOutputMonitor_NilSink(t *testing.T) {
	processor := testutil.NewMockLineProcessor()
	monitor := NewOutputMonitor(nil, processor, nil)

	// Should not panic with nil sink or config
	monitor.HandleData([]byte("test line\n"))

	if processor.GetProcessCallCount() != 1 {
		t.Errorf("expected 1 process call but got %d", processor.GetProcessCallCount())
	}
}

func TestOutputMonitor_Stats(t *testing.T) {
	filters := []pattern.Filter{{Pattern: pattern.New(pattern.Substring, "debug"), IfMatch: pattern.Reject}}
	transforms := []transform.Transform{
		transform.New(pattern.New(pattern.RegularExpression, `^(?<lvl>warn):`), "WARN:"),
	}
	highlights := []pattern.Highlight{pattern.NewHighlight(pattern.New(pattern.Substring, "disk"))}

	ps, errs := NewPatternSet(filters, transforms, highlights, DefaultOptions())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	sink := testutil.NewMockLineSink()
	monitor := NewOutputMonitor(&config.Config{}, ps, sink)
	monitor.HandleData([]byte("debug noise\nwarn: disk low\ninfo: started\n"))

	stats := monitor.Stats()
	if stats.Lines != 3 || stats.Admitted != 2 || stats.Rejected != 1 {
		t.Errorf("unexpected counts %+v", stats)
	}
	if stats.Transformed != 1 || stats.Highlighted != 1 {
		t.Errorf("unexpected transform/highlight counts %+v", stats)
	}
	if texts := sink.GetTexts(); !reflect.DeepEqual(texts, []string{"WARN: disk low", "info: started"}) {
		t.Errorf("unexpected output %q", texts)
	}
}

func TestOutputMonitor_Consume(t *testing.T) {
	processor := testutil.NewMockLineProcessor()
	sink := testutil.NewMockLineSink()
	monitor := NewOutputMonitor(&config.Config{}, processor, sink)

	// One byte per read exercises the line buffer
	r := iotest.OneByteReader(strings.NewReader("first\nsecond\nlast"))
	if err := monitor.Consume(context.Background(), r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if texts := sink.GetTexts(); !reflect.DeepEqual(texts, []string{"first", "second", "last"}) {
		t.Errorf("unexpected lines %q", texts)
	}
}

func TestOutputMonitor_ConsumeErrors(t *testing.T) {
	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		monitor := NewOutputMonitor(&config.Config{}, testutil.NewMockLineProcessor(), nil)
		if err := monitor.Consume(ctx, strings.NewReader("x\n")); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled but got %v", err)
		}
	})

	t.Run("read error", func(t *testing.T) {
		readErr := errors.New("device gone")
		monitor := NewOutputMonitor(&config.Config{}, testutil.NewMockLineProcessor(), nil)
		if err := monitor.Consume(context.Background(), iotest.ErrReader(readErr)); !errors.Is(err, readErr) {
			t.Errorf("expected wrapped read error but got %v", err)
		}
	})
}

func TestOutputMonitor_LineBuffering(t *testing.T) {
	tests := []struct {
		name            string
		inputs          [][]byte
		wantBufferEmpty bool
	}{
		{
			name:            "single complete line",
			inputs:          [][]byte{[]byte("line1\n")},
			wantBufferEmpty: true,
		},
		{
			name:            "incomplete line",
			inputs:          [][]byte{[]byte("incomplete")},
			wantBufferEmpty: false,
		},
		{
			name:            "incomplete then complete",
			inputs:          [][]byte{[]byte("part1 "), []byte("part2\n")},
			wantBufferEmpty: true,
		},
		{
			name:            "multiple lines with remainder",
			inputs:          [][]byte{[]byte("line1\nline2\npart")},
			wantBufferEmpty: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monitor := NewOutputMonitor(&config.Config{}, testutil.NewMockLineProcessor(), nil)

			for _, input := range tt.inputs {
				monitor.HandleData(input)
			}

			// Check buffer state
			hasData := monitor.lineBuffer.Len() > 0
			if tt.wantBufferEmpty && hasData {
				t.Errorf("expected empty buffer but has %d bytes", monitor.lineBuffer.Len())
			}
			if !tt.wantBufferEmpty && !hasData {
				t.Error("expected data in buffer but it's empty")
			}
		})
	}
}
