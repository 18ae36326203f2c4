package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/psryland/rylogic-code-sub008/pkg/config"
	"github.com/psryland/rylogic-code-sub008/pkg/process"
	"github.com/psryland/rylogic-code-sub008/pkg/testutil"
)

const filtersXML = `<filters>
  <filter><Expr>debug</Expr><PatnType>Substring</PatnType><IfMatch>Reject</IfMatch></filter>
  <filter><Expr>trace</Expr><PatnType>Substring</PatnType><IfMatch>Reject</IfMatch><Active>False</Active></filter>
  <filter><Expr>(</Expr><PatnType>RegularExpression</PatnType><IfMatch>Reject</IfMatch></filter>
</filters>`

const transformsXML = `<transforms>
  <transform><Expr>^(?&lt;a&gt;\w+) (?&lt;b&gt;\w+)$</Expr><PatnType>RegularExpression</PatnType><Replace>{b} {a}</Replace></transform>
  <transform><Expr>x</Expr><PatnType>Substring</PatnType></transform>
</transforms>`

const highlightsXML = `<highlights>
  <highlight><Expr>world</Expr><PatnType>Substring</PatnType><ForeColour>#ff0000</ForeColour></highlight>
</highlights>`

// writeLists writes the fixture lists and returns a config that uses them
func writeLists(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
		return path
	}

	cfg := config.DefaultConfig()
	cfg.Color = config.ColorNever
	cfg.FiltersFile = write("filters.xml", filtersXML)
	cfg.TransformsFile = write("transforms.xml", transformsXML)
	cfg.HighlightsFile = write("highlights.xml", highlightsXML)
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) (*Application, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	deps, err := NewDependencies(cfg, &stdout, &stderr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return NewApplication(deps), &stdout, &stderr
}

func TestNewDependencies(t *testing.T) {
	cfg := writeLists(t)

	var stdout, stderr bytes.Buffer
	deps, err := NewDependencies(cfg, &stdout, &stderr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if deps.Config != cfg {
		t.Error("expected config to be set")
	}

	if len(deps.Filters) != 3 {
		t.Errorf("expected 3 filters but got %d", len(deps.Filters))
	}

	// The transform without Replace is skipped on load
	if len(deps.Transforms) != 1 {
		t.Errorf("expected 1 transform but got %d", len(deps.Transforms))
	}

	if len(deps.Highlights) != 1 {
		t.Errorf("expected 1 highlight but got %d", len(deps.Highlights))
	}

	if len(deps.Skipped) != 1 {
		t.Errorf("expected 1 skipped entry but got %d: %v", len(deps.Skipped), deps.Skipped)
	}
	// The skipped transform and the filter that fails to compile are both logged
	for _, want := range []string{"logpatn: skipped", "logpatn: ignoring filter 3"} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("expected %q logged to stderr but got %q", want, stderr.String())
		}
	}

	filters, transforms, highlights := deps.PatternSet.Len()
	if filters != 1 || transforms != 1 || highlights != 1 {
		t.Errorf("expected 1/1/1 compiled but got %d/%d/%d", filters, transforms, highlights)
	}

	if deps.Renderer == nil || deps.Sink == nil || deps.OutputMonitor == nil {
		t.Error("expected pipeline to be wired")
	}
}

func TestNewDependencies_NoLists(t *testing.T) {
	cfg := config.DefaultConfig()

	var stdout, stderr bytes.Buffer
	deps, err := NewDependencies(cfg, &stdout, &stderr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deps.Filters) != 0 || len(deps.Transforms) != 0 || len(deps.Highlights) != 0 {
		t.Error("expected empty lists")
	}
}

func TestNewDependencies_MissingList(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.FiltersFile = filepath.Join(t.TempDir(), "missing.xml")

	var stdout, stderr bytes.Buffer
	if _, err := NewDependencies(cfg, &stdout, &stderr); err == nil {
		t.Error("expected error for missing list")
	}
}

func TestApplication_Run(t *testing.T) {
	cfg := writeLists(t)
	cfg.Summary = true
	app, stdout, stderr := newTestApp(t, cfg)

	stdin := strings.NewReader("keep this line\ndebug noise\nhello world\n")
	if err := app.Run(context.Background(), nil, stdin); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "keep this line\nworld hello\n"
	if stdout.String() != expected {
		t.Errorf("expected %q but got %q", expected, stdout.String())
	}

	for _, want := range []string{"Lines", "Rejected"} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("expected summary with %q but got %q", want, stderr.String())
		}
	}
}

func TestApplication_RunFiles(t *testing.T) {
	cfg := writeLists(t)
	cfg.LineNumbers = true
	app, stdout, _ := newTestApp(t, cfg)

	input := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(input, []byte("debug one\nsecond line"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := app.Run(context.Background(), []string{input}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := stdout.String(); got != "     2  line second\n" {
		t.Errorf("expected %q but got %q", "     2  line second\n", got)
	}

	if err := app.Run(context.Background(), []string{input + ".missing"}, nil); err == nil {
		t.Error("expected error for missing input")
	}
}

func TestApplication_RunCancelled(t *testing.T) {
	app, _, _ := newTestApp(t, config.DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := app.Run(ctx, nil, strings.NewReader("x\n")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled but got %v", err)
	}
}

func TestApplication_Exec(t *testing.T) {
	cfg := writeLists(t)
	app, stdout, _ := newTestApp(t, cfg)

	mock := testutil.NewMockPTY("building\r\ndebug step\r\nhello world\r\n")
	app.newPTY = func() process.PTY { return mock }

	code, err := app.Exec(context.Background(), "make", []string{"all"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 0 {
		t.Errorf("expected exit code 0 but got %d", code)
	}
	if cmd, args := mock.GetCommand(); cmd != "make" || len(args) != 1 || args[0] != "all" {
		t.Errorf("expected make all but got %s %v", cmd, args)
	}
	if !mock.IsWaited() {
		t.Error("expected process to be waited on")
	}

	expected := "building\nworld hello\n"
	if stdout.String() != expected {
		t.Errorf("expected %q but got %q", expected, stdout.String())
	}
}

func TestApplication_ExecStartError(t *testing.T) {
	app, _, _ := newTestApp(t, config.DefaultConfig())

	mock := testutil.NewMockPTY("")
	mock.SetStartError(errors.New("not found"))
	app.newPTY = func() process.PTY { return mock }

	code, err := app.Exec(context.Background(), "missing", nil)
	if err == nil || code != 1 {
		t.Errorf("expected start failure with code 1 but got %d, %v", code, err)
	}
}

func TestApplication_Check(t *testing.T) {
	app, stdout, _ := newTestApp(t, writeLists(t))

	err := app.Check()
	if !errors.Is(err, ErrInvalidPatterns) {
		t.Fatalf("expected ErrInvalidPatterns but got %v", err)
	}
	// One skipped on load and one that fails to compile
	if !strings.HasSuffix(err.Error(), ": 2") {
		t.Errorf("expected 2 invalid entries but got %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"filter", "transform", "highlight", "inactive", "ok", "debug"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in check output:\n%s", want, out)
		}
	}
}

func TestApplication_CheckClean(t *testing.T) {
	app, _, _ := newTestApp(t, config.DefaultConfig())
	if err := app.Check(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestApplication_Preview(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{
			name: "transformed",
			line: "hello world",
			want: []string{"admitted", "transform 1", "world hello", "{a}", `"hello" at 6+5`},
		},
		{
			name: "rejected",
			line: "debug stuff",
			want: []string{"rejected"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, stdout, _ := newTestApp(t, writeLists(t))
			if err := app.Preview(tt.line); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("expected %q in preview:\n%s", want, stdout.String())
				}
			}
		})
	}
}

func TestApplication_Substitutions(t *testing.T) {
	app, stdout, _ := newTestApp(t, config.DefaultConfig())
	app.Substitutions()

	for _, want := range []string{"NoChange", "Lower Case", "Upper Case", "Code Lookup", "Swizzle"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("expected %q in substitution list:\n%s", want, stdout.String())
		}
	}
}

func TestApplication_Swizzle(t *testing.T) {
	app, stdout, _ := newTestApp(t, config.DefaultConfig())

	if err := app.Swizzle("aaaa bbbbb", "BBBBB, Aaaa", []string{"john smith"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout.String() != "SMITH, John\n" {
		t.Errorf("expected %q but got %q", "SMITH, John\n", stdout.String())
	}

	if err := app.Swizzle("aba", "ab", []string{"x"}); err == nil {
		t.Error("expected error for non-contiguous mapping")
	}
}

func TestApplication_Codes(t *testing.T) {
	app, stdout, stderr := newTestApp(t, config.DefaultConfig())

	path := filepath.Join(t.TempDir(), "codes.csv")
	csv := "Code,Value\nE1,not found\nE2\nE3,disk full\n"
	if err := os.WriteFile(path, []byte(csv), 0600); err != nil {
		t.Fatal(err)
	}

	if err := app.Codes(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"<Code>E1</Code>", "<Value>disk full</Value>"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("expected %q in %q", want, stdout.String())
		}
	}
	if !strings.Contains(stderr.String(), "skipped 1 rows") {
		t.Errorf("expected partial import warning but got %q", stderr.String())
	}

	if err := app.Codes(path + ".missing"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRun(t *testing.T) {
	t.Setenv("LOGPATN_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("LOGPATN_COLOR", "never")

	tests := []struct {
		name       string
		args       []string
		stdin      string
		wantCode   int
		wantStdout string
	}{
		{name: "help", args: []string{"--help"}, wantCode: 0, wantStdout: "Usage:"},
		{name: "unknown flag", args: []string{"--bogus"}, wantCode: 2},
		{name: "bad color", args: []string{"--color", "rainbow"}, wantCode: 2},
		{name: "stdin passthrough", args: nil, stdin: "a\nb\n", wantCode: 0, wantStdout: "a\nb\n"},
		{name: "line numbers", args: []string{"-n"}, stdin: "a\n", wantCode: 0, wantStdout: "     1  a\n"},
		{name: "swizzle", args: []string{"swizzle", "--src", "yyyy-mm-dd", "--dst", "dd mm yyyy", "2024-03-17"}, wantCode: 0, wantStdout: "17 03 2024\n"},
		{name: "swizzle without text", args: []string{"swizzle", "--src", "a", "--dst", "a"}, wantCode: 2},
		{name: "preview without line", args: []string{"preview"}, wantCode: 2},
		{name: "codes without file", args: []string{"codes"}, wantCode: 2},
		{name: "exec without command", args: []string{"exec"}, wantCode: 2},
		{name: "subs", args: []string{"subs"}, wantCode: 0, wantStdout: "Swizzle"},
		{name: "missing config", args: []string{"--config", "/nonexistent/logpatn.yaml"}, wantCode: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, strings.NewReader(tt.stdin), &stdout, &stderr)

			if code != tt.wantCode {
				t.Errorf("expected exit code %d but got %d (stderr: %s)", tt.wantCode, code, stderr.String())
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("expected stdout to contain %q but got %q", tt.wantStdout, stdout.String())
			}
		})
	}
}
