// Package interfaces defines the core interfaces used throughout the application.
package interfaces

import "github.com/psryland/rylogic-code-sub008/pkg/types"

// LineProcessor filters, transforms and highlights a single line.
type LineProcessor interface {
	// Process returns the processed line, or false if a filter rejected it.
	Process(number int, line string) (types.Line, bool)
}

// LineSink receives processed lines.
type LineSink interface {
	WriteLine(line types.Line) error
}

// OutputHandler processes output lines.
type OutputHandler interface {
	HandleLine(line string)
}

// DataHandler processes raw output data.
type DataHandler interface {
	OutputHandler
	HandleData(data []byte)
}
