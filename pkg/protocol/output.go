package protocol

import "io"

// Sink for the output of a single task.
type OutputWriter interface {
	// Returns a writer for the given stream.
	// Written data is split into one LogLine per line of text.
	Stream(stream LogStream) io.Writer

	// Flush buffered lines and release the sink.
	Close() error
}
