package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/psryland/rylogic-code-sub008/pkg/config"
)

func main() {
	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// options are the command line flags
type options struct {
	configPath  string
	filters     string
	highlights  string
	transforms  string
	color       string
	lineNumbers bool
	summary     bool
	noPrefilter bool
	help        bool
}

func newFlagSet(opts *options, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("logpatn", flag.ContinueOnError)
	fs.SetOutput(stderr)
	// Flags stop at the first argument so subcommands can take their own
	fs.SetInterspersed(false)

	fs.StringVar(&opts.configPath, "config", "", "Path to config file")
	fs.StringVarP(&opts.filters, "filters", "f", "", "Filter list (XML)")
	fs.StringVarP(&opts.highlights, "highlights", "H", "", "Highlight list (XML)")
	fs.StringVarP(&opts.transforms, "transforms", "t", "", "Transform list (XML)")
	fs.StringVar(&opts.color, "color", "", "Colour output: auto, always or never")
	fs.BoolVarP(&opts.lineNumbers, "line-numbers", "n", false, "Prefix lines with their input line number")
	fs.BoolVar(&opts.summary, "summary", false, "Print line counts to stderr when done")
	fs.BoolVar(&opts.noPrefilter, "no-prefilter", false, "Run every pattern on every line")
	fs.BoolVarP(&opts.help, "help", "h", false, "Show help message")
	return fs
}

// run executes the command line and returns the process exit code
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var opts options
	fs := newFlagSet(&opts, stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if opts.help {
		printUsage(stdout, fs)
		return 0
	}

	// Load configuration
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}
	if err := applyFlags(cfg, fs, &opts); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	// Create dependencies
	deps, err := NewDependencies(cfg, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error creating dependencies: %v\n", err)
		return 1
	}

	// Create application
	app := NewApplication(deps)

	if os.Getenv("LOGPATN_DEBUG") == "true" {
		filters, transforms, highlights := deps.PatternSet.Len()
		fmt.Fprintf(stderr, "logpatn: compiled %d filters, %d transforms, %d highlights\n", filters, transforms, highlights)
	}

	rest := fs.Args()
	command := ""
	if len(rest) > 0 {
		command = rest[0]
	}

	switch command {
	case "check":
		err = app.Check()
	case "subs":
		app.Substitutions()
	case "preview":
		if len(rest) != 2 {
			fmt.Fprintln(stderr, "Usage: logpatn preview LINE")
			return 2
		}
		err = app.Preview(rest[1])
	case "exec":
		if len(rest) < 2 {
			fmt.Fprintln(stderr, "Usage: logpatn exec COMMAND [ARGS...]")
			return 2
		}
		code, err := app.Exec(ctx, rest[1], rest[2:])
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return 130
			}
			fmt.Fprintf(stderr, "Error running %s: %v\n", rest[1], err)
		}
		// Exit with the same code as the watched process
		return code
	case "swizzle":
		return runSwizzle(app, rest[1:], stderr)
	case "codes":
		if len(rest) != 2 {
			fmt.Fprintln(stderr, "Usage: logpatn codes FILE.csv")
			return 2
		}
		err = app.Codes(rest[1])
	default:
		err = app.Run(ctx, rest, stdin)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Exit with standard interrupt code
			return 130
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// applyFlags overrides the configuration with flags given on the command line
func applyFlags(cfg *config.Config, fs *flag.FlagSet, opts *options) error {
	if fs.Changed("filters") {
		cfg.FiltersFile = opts.filters
	}
	if fs.Changed("highlights") {
		cfg.HighlightsFile = opts.highlights
	}
	if fs.Changed("transforms") {
		cfg.TransformsFile = opts.transforms
	}
	if fs.Changed("color") {
		switch opts.color {
		case config.ColorAuto, config.ColorAlways, config.ColorNever:
			cfg.Color = opts.color
		default:
			return fmt.Errorf("--color must be one of auto, always, never (got %q)", opts.color)
		}
	}
	if fs.Changed("line-numbers") {
		cfg.LineNumbers = opts.lineNumbers
	}
	if fs.Changed("summary") {
		cfg.Summary = opts.summary
	}
	if opts.noPrefilter {
		cfg.Prefilter = false
	}
	return nil
}

func runSwizzle(app *Application, args []string, stderr io.Writer) int {
	var src, dst string
	fs := flag.NewFlagSet("swizzle", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&src, "src", "", "Source layout, e.g. \"aaaa bbbbb\"")
	fs.StringVar(&dst, "dst", "", "Destination layout, e.g. \"BBBBB, Aaaa\"")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "Usage: logpatn swizzle --src SRC --dst DST TEXT...")
		return 2
	}
	if err := app.Swizzle(src, dst, fs.Args()); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "logpatn - filter, transform and highlight log lines")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  logpatn [OPTIONS] [FILE...]                     Process files, or stdin")
	fmt.Fprintln(w, "  logpatn [OPTIONS] exec COMMAND [ARGS...]        Process the output of a command")
	fmt.Fprintln(w, "  logpatn [OPTIONS] check                         Validate the pattern lists")
	fmt.Fprintln(w, "  logpatn [OPTIONS] preview LINE                  Show each stage applied to LINE")
	fmt.Fprintln(w, "  logpatn subs                                    List substitution kinds")
	fmt.Fprintln(w, "  logpatn swizzle --src SRC --dst DST TEXT...     Try a swizzle mapping")
	fmt.Fprintln(w, "  logpatn codes FILE.csv                          Convert a code table to lookup data")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment Variables:")
	fmt.Fprintln(w, "  LOGPATN_CONFIG         Path to config file")
	fmt.Fprintln(w, "  LOGPATN_FILTERS        Filter list")
	fmt.Fprintln(w, "  LOGPATN_HIGHLIGHTS     Highlight list")
	fmt.Fprintln(w, "  LOGPATN_TRANSFORMS     Transform list")
	fmt.Fprintln(w, "  LOGPATN_MATCH_TIMEOUT  Per match time limit (default: 1s)")
	fmt.Fprintln(w, "  LOGPATN_COLOR          auto, always or never")
	fmt.Fprintln(w, "  LOGPATN_PREFILTER      Literal prefilter (true/false)")
	fmt.Fprintln(w, "  LOGPATN_STRIP_ANSI     Strip escape sequences from input (true/false)")
	fmt.Fprintln(w, "  LOGPATN_DEBUG          Log filtered lines to stderr (true)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration file: ~/.config/logpatn/config.yaml or config.toml")
}
