package main

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/psryland/rylogic-code-sub008/pkg/config"
	"github.com/psryland/rylogic-code-sub008/pkg/monitor"
	"github.com/psryland/rylogic-code-sub008/pkg/pattern"
	"github.com/psryland/rylogic-code-sub008/pkg/process"
	"github.com/psryland/rylogic-code-sub008/pkg/render"
	"github.com/psryland/rylogic-code-sub008/pkg/substitution"
	"github.com/psryland/rylogic-code-sub008/pkg/transform"
)

// Dependencies holds all the dependencies for the application
type Dependencies struct {
	Config     *config.Config
	Filters    []pattern.Filter
	Transforms []transform.Transform
	Highlights []pattern.Highlight

	PatternSet    *monitor.PatternSet
	Renderer      *render.Renderer
	Sink          *render.Writer
	OutputMonitor *monitor.OutputMonitor

	Stdout io.Writer
	Stderr io.Writer

	// Entries that failed to import, one error each
	Skipped []error
}

// NewDependencies loads the pattern lists named by cfg and wires the pipeline
func NewDependencies(cfg *config.Config, stdout, stderr io.Writer) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Stdout: stdout,
		Stderr: stderr,
	}

	var err error
	if deps.Filters, err = loadList[pattern.Filter](deps, cfg.FiltersFile); err != nil {
		return nil, err
	}
	if deps.Transforms, err = loadList[transform.Transform](deps, cfg.TransformsFile); err != nil {
		return nil, err
	}
	if deps.Highlights, err = loadList[pattern.Highlight](deps, cfg.HighlightsFile); err != nil {
		return nil, err
	}

	opts := monitor.Options{Match: cfg.MatchOptions(), Prefilter: cfg.Prefilter}
	ps, errs := monitor.NewPatternSet(deps.Filters, deps.Transforms, deps.Highlights, opts)
	for _, err := range errs {
		fmt.Fprintf(stderr, "logpatn: ignoring %v\n", err)
	}
	deps.PatternSet = ps

	deps.Renderer = render.NewRenderer(stdout, cfg.Color)
	deps.Sink = render.NewWriter(stdout, deps.Renderer, cfg.LineNumbers)
	deps.OutputMonitor = monitor.NewOutputMonitor(cfg, deps.PatternSet, deps.Sink)

	return deps, nil
}

// loadList reads an XML pattern list. An empty path is an empty list.
func loadList[T any, PT interface {
	*T
	xml.Unmarshaler
}](deps *Dependencies, path string) ([]T, error) {
	if path == "" {
		return nil, nil
	}
	// #nosec G304 - The list path comes from the user's own configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern list: %w", err)
	}
	items, skipped := pattern.UnmarshalList[T, PT](data)
	for _, err := range skipped {
		err = fmt.Errorf("%s: %w", path, err)
		deps.Skipped = append(deps.Skipped, err)
		fmt.Fprintf(deps.Stderr, "logpatn: skipped %v\n", err)
	}
	return items, nil
}

// Application represents the main application
type Application struct {
	deps *Dependencies

	// newPTY is replaced in tests
	newPTY func() process.PTY
}

// NewApplication creates a new application with the given dependencies
func NewApplication(deps *Dependencies) *Application {
	return &Application{
		deps:   deps,
		newPTY: func() process.PTY { return process.NewPTYManager() },
	}
}

// Run processes each input in turn. No inputs, or "-", reads stdin.
func (a *Application) Run(ctx context.Context, inputs []string, stdin io.Reader) error {
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}

	for _, name := range inputs {
		if err := a.consume(ctx, name, stdin); err != nil {
			return err
		}
	}

	if a.deps.Config.Summary {
		fmt.Fprintln(a.deps.Stderr, a.deps.Renderer.Summary(a.deps.OutputMonitor.Stats()))
	}
	return nil
}

func (a *Application) consume(ctx context.Context, name string, stdin io.Reader) error {
	if name == "-" {
		return a.deps.OutputMonitor.Consume(ctx, stdin)
	}

	// #nosec G304 - Input files are named by the user on the command line
	f, err := os.Open(name)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := a.deps.OutputMonitor.Consume(ctx, f); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Exec runs command on a pseudo terminal and processes its output. It
// returns the command's exit code.
func (a *Application) Exec(ctx context.Context, command string, args []string) (int, error) {
	mgr := process.NewManager(a.newPTY())
	if err := mgr.Start(command, args); err != nil {
		return 1, err
	}

	// Stop the process when we are interrupted; its output then ends
	stop := context.AfterFunc(ctx, func() {
		if err := mgr.Stop(); err != nil {
			fmt.Fprintf(a.deps.Stderr, "logpatn: error stopping process: %v\n", err)
		}
	})
	defer stop()

	consumeErr := a.deps.OutputMonitor.Consume(ctx, mgr.Output())
	if err := mgr.Wait(); err != nil && consumeErr == nil {
		return 1, err
	}
	if consumeErr != nil {
		return 1, consumeErr
	}

	if a.deps.Config.Summary {
		fmt.Fprintln(a.deps.Stderr, a.deps.Renderer.Summary(a.deps.OutputMonitor.Stats()))
	}
	return mgr.ExitCode(), nil
}

// ErrInvalidPatterns is returned by Check when any entry fails to compile.
var ErrInvalidPatterns = errors.New("invalid patterns")

// Check prints every loaded entry with its status
func (a *Application) Check() error {
	opts := a.deps.Config.MatchOptions()
	var rows [][]string
	invalid := len(a.deps.Skipped)

	add := func(list string, i int, p pattern.Pattern, err error) {
		status := "ok"
		switch {
		case err != nil:
			status = err.Error()
			invalid++
		case !p.Active:
			status = "inactive"
		}
		rows = append(rows, []string{list, strconv.Itoa(i + 1), p.Kind.String(), p.Expr, status})
	}

	for i, f := range a.deps.Filters {
		add("filter", i, f.Pattern, f.CompileWith(opts).Err())
	}
	for i, t := range a.deps.Transforms {
		add("transform", i, t.Pattern, t.CompileWith(opts).Err())
	}
	for i, h := range a.deps.Highlights {
		add("highlight", i, h.Pattern, h.CompileWith(opts).Err())
	}

	fmt.Fprintln(a.deps.Stdout, a.deps.Renderer.Table([]string{"List", "#", "Type", "Expr", "Status"}, rows))
	if invalid > 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPatterns, invalid)
	}
	return nil
}

// Preview shows what each stage does to a single line
func (a *Application) Preview(line string) error {
	ps := a.deps.PatternSet
	rows := [][]string{{"input", line}}

	if !ps.Admit(line) {
		rows = append(rows, []string{"filters", "rejected"})
		fmt.Fprintln(a.deps.Stdout, a.deps.Renderer.Table([]string{"Stage", "Text"}, rows))
		return nil
	}
	rows = append(rows, []string{"filters", "admitted"})

	text := line
	opts := a.deps.Config.MatchOptions()
	for i, t := range a.deps.Transforms {
		c := t.CompileWith(opts)
		if !t.Active || !c.IsValid() {
			continue
		}
		res := c.Apply(text)
		if res.Source == nil {
			continue
		}
		text = res.Text
		rows = append(rows, []string{"transform " + strconv.Itoa(i+1), text})
		for _, g := range res.Dest {
			rows = append(rows, []string{"  {" + g.ID + "}", fmt.Sprintf("%q at %d+%d", g.Text, g.Span.Offset, g.Span.Length)})
		}
	}

	out, _ := ps.Process(0, line)
	rows = append(rows, []string{"output", a.deps.Renderer.Render(out)})
	fmt.Fprintln(a.deps.Stdout, a.deps.Renderer.Table([]string{"Stage", "Text"}, rows))
	return nil
}

// Substitutions lists the registered substitution kinds
func (a *Application) Substitutions() {
	var rows [][]string
	for _, e := range substitution.Default().Entries() {
		rows = append(rows, []string{e.ID, e.Name})
	}
	fmt.Fprintln(a.deps.Stdout, a.deps.Renderer.Table([]string{"ID", "Name"}, rows))
}

// Swizzle applies a swizzle mapping to each text
func (a *Application) Swizzle(src, dst string, texts []string) error {
	s, err := substitution.NewSwizzle(src, dst)
	if err != nil {
		return err
	}
	for _, text := range texts {
		fmt.Fprintln(a.deps.Stdout, s.Apply(text))
	}
	return nil
}

// Codes converts a code/value CSV file into code lookup data for a
// transform list.
func (a *Application) Codes(path string) error {
	// #nosec G304 - The CSV path is named by the user on the command line
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open codes: %w", err)
	}
	defer func() { _ = f.Close() }()

	codes := substitution.NewCodeLookup()
	res, err := codes.ImportCSV(f)
	if err != nil {
		return fmt.Errorf("failed to import codes: %w", err)
	}
	if res.Partial() {
		fmt.Fprintf(a.deps.Stderr, "logpatn: imported %d codes, skipped %d rows\n", res.Imported, res.Skipped)
	}

	data, err := codes.MarshalData()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.deps.Stdout, string(data))
	return nil
}
