package monitor

import "github.com/psryland/rylogic-code-sub008/pkg/pattern"

// Options controls how a PatternSet is compiled.
type Options struct {
	// Match is passed to every pattern compile.
	Match pattern.Options
	// Prefilter enables the literal gate in front of filters and highlights.
	Prefilter bool
}

// DefaultOptions returns the default compile options with the prefilter on.
func DefaultOptions() Options {
	return Options{Match: pattern.DefaultOptions(), Prefilter: true}
}
