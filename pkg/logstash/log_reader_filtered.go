package logstash

import (
	"github.com/srand/hookd/pkg/protocol"
)

type LogFilterFunc func(*protocol.LogLine) bool

type filteredLogReader struct {
	reader  LogReader
	filters []LogFilterFunc
}

func NewFilteredLogReader(reader LogReader) *filteredLogReader {
	return &filteredLogReader{
		reader: reader,
	}
}

func (r *filteredLogReader) AddFilter(filter LogFilterFunc) {
	r.filters = append(r.filters, filter)
}

// Only pass lines from the given streams.
func (r *filteredLogReader) AddStreamFilter(streams ...protocol.LogStream) {
	r.AddFilter(func(line *protocol.LogLine) bool {
		for _, stream := range streams {
			if line.Stream == stream {
				return true
			}
		}
		return false
	})
}

func (r *filteredLogReader) Match(line *protocol.LogLine) bool {
	for _, filter := range r.filters {
		if !filter(line) {
			return false
		}
	}

	return true
}

func (r *filteredLogReader) ReadLine() (*protocol.LogLine, error) {
	for {
		line, err := r.reader.ReadLine()
		if err != nil {
			return nil, err
		}

		if r.Match(line) {
			return line, nil
		}
	}
}

func (r *filteredLogReader) Close() error {
	return r.reader.Close()
}
