package logstash

import (
	"bytes"
	"io"
	"sync"

	"github.com/srand/hookd/pkg/protocol"
)

// Splits task output into log lines, one record per line of text.
// Streams share the underlying writer and may be written concurrently.
type taskOutput struct {
	mu      sync.Mutex
	writer  LogWriter
	partial map[protocol.LogStream][]byte
	err     error
}

func newTaskOutput(writer LogWriter) *taskOutput {
	return &taskOutput{
		writer:  writer,
		partial: map[protocol.LogStream][]byte{},
	}
}

type streamWriter struct {
	output *taskOutput
	stream protocol.LogStream
}

func (w *streamWriter) Write(p []byte) (int, error) {
	return w.output.write(w.stream, p)
}

func (o *taskOutput) Stream(stream protocol.LogStream) io.Writer {
	return &streamWriter{output: o, stream: stream}
}

func (o *taskOutput) write(stream protocol.LogStream, p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.err != nil {
		return 0, o.err
	}

	data := append(o.partial[stream], p...)
	for {
		index := bytes.IndexByte(data, '\n')
		if index < 0 {
			break
		}

		if err := o.writer.WriteLine(protocol.NewLogLine(stream, string(data[:index]))); err != nil {
			o.err = err
			return 0, err
		}

		data = data[index+1:]
	}

	o.partial[stream] = append([]byte(nil), data...)
	return len(p), nil
}

// Flush unterminated lines and close the log.
func (o *taskOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, stream := range []protocol.LogStream{protocol.LogStream_STDOUT, protocol.LogStream_STDERR, protocol.LogStream_SYSTEM} {
		if len(o.partial[stream]) > 0 && o.err == nil {
			o.err = o.writer.WriteLine(protocol.NewLogLine(stream, string(o.partial[stream])))
		}
		delete(o.partial, stream)
	}

	if err := o.writer.Close(); err != nil {
		return err
	}
	return o.err
}
