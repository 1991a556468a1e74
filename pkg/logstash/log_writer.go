package logstash

import (
	"encoding/gob"

	"github.com/srand/hookd/pkg/protocol"
	"github.com/srand/hookd/pkg/utils"
)

type LogWriter interface {
	WriteLine(*protocol.LogLine) error
	Close() error
}

// Writes gob encoded log lines to a file.
type fileLogWriter struct {
	id      string
	file    utils.File
	encoder *gob.Encoder
	stash   *logStash
}

func newFileLogWriter(stash *logStash, id string, file utils.File) *fileLogWriter {
	return &fileLogWriter{
		id:      id,
		file:    file,
		encoder: gob.NewEncoder(file),
		stash:   stash,
	}
}

func (r *fileLogWriter) WriteLine(line *protocol.LogLine) error {
	return r.encoder.Encode(line)
}

func (r *fileLogWriter) Close() error {
	defer r.stash.logClosed(r)
	return r.file.Close()
}

func (r *fileLogWriter) Path() string {
	return r.id
}
