package logstash

import (
	"os"
	"sync"

	"github.com/spf13/afero"
	"github.com/srand/hookd/pkg/log"
	"github.com/srand/hookd/pkg/protocol"
	"github.com/srand/hookd/pkg/utils"
)

type LogStashConfig interface {
	// Get the maximum allowed size of the stash
	// If the stash is larger than this, the oldest entries will be removed.
	// If this is 0, the stash will be unbounded.
	MaxSize() int64
}

// Storage for the output of tasks, one log per task.
type LogStash interface {
	// Create the log of a task, replacing any existing log with the same id.
	Append(id string) (LogWriter, error)

	// Open the log of a task for reading.
	Read(id string) (LogReader, error)

	// Open a line oriented output sink for a task.
	OpenOutput(id string) (protocol.OutputWriter, error)
}

type logFile struct {
	fs   utils.Fs
	path string
	size int64
}

func newLogFile(fs utils.Fs, path string) *logFile {
	var size int64

	if st, err := fs.Stat(path); err == nil {
		size = st.Size()
	}

	return &logFile{
		fs:   fs,
		path: path,
		size: size,
	}
}

func (f *logFile) Path() string {
	return f.path
}

func (f *logFile) Size() int64 {
	return f.size
}

func (f *logFile) Unlink() error {
	return f.fs.Remove(f.path)
}

type logStash struct {
	sync.RWMutex
	config LogStashConfig
	fs     utils.Fs
	lru    *utils.LRU[*logFile]
}

// Create a new logstash storing logs in the given filesystem.
// Logs already present in the filesystem are adopted.
func NewLogStash(config LogStashConfig, fs utils.Fs) LogStash {
	stash := &logStash{
		config: config,
		fs:     fs,
	}

	stash.lru = utils.NewLRU[*logFile](config.MaxSize(), func(item *logFile) bool {
		log.Debug("del - log - id:", item.Path())
		if err := item.Unlink(); err != nil {
			log.Warn("err - log - failed to remove:", err)
		}
		return true
	})

	logCount := 0

	afero.Walk(fs, ".", func(path string, info os.FileInfo, err error) error {
		if err != nil || path == "." || info.IsDir() {
			return nil
		}

		stash.lru.Add(newLogFile(fs, path))
		logCount++
		return nil
	})

	log.Infof("Loaded %d log files into logstash LRU cache. Size: %s / %s",
		logCount, utils.HumanByteSize(stash.lru.Size()), utils.HumanByteSize(config.MaxSize()))

	return stash
}

func (s *logStash) Append(id string) (LogWriter, error) {
	// Open logs are not subject to eviction.
	s.Lock()
	s.lru.Remove(id)
	s.Unlock()

	file, err := s.fs.Create(id)
	if err != nil {
		return nil, err
	}

	log.Debug("add - log - id:", id)

	return newFileLogWriter(s, id, file), nil
}

func (s *logStash) Read(id string) (LogReader, error) {
	file, err := s.fs.Open(id)
	if err != nil {
		return nil, err
	}

	s.Lock()
	s.lru.Get(id)
	s.Unlock()

	return newFileLogReader(file), nil
}

func (s *logStash) OpenOutput(id string) (protocol.OutputWriter, error) {
	writer, err := s.Append(id)
	if err != nil {
		return nil, err
	}

	return newTaskOutput(writer), nil
}

func (s *logStash) logClosed(writer *fileLogWriter) {
	s.Lock()
	defer s.Unlock()

	s.lru.Add(newLogFile(s.fs, writer.Path()))
}
