package protocol

import (
	"google.golang.org/protobuf/types/known/timestamppb"
)

type LogStream int

const (
	LogStream_STDOUT LogStream = iota
	LogStream_STDERR
	LogStream_SYSTEM
)

func (s LogStream) String() string {
	switch s {
	case LogStream_STDOUT:
		return "stdout"
	case LogStream_STDERR:
		return "stderr"
	default:
		return "system"
	}
}

// A single line of task output as kept by the logstash.
type LogLine struct {
	Time    *timestamppb.Timestamp
	Stream  LogStream
	Message string
}

func NewLogLine(stream LogStream, message string) *LogLine {
	return &LogLine{
		Time:    timestamppb.Now(),
		Stream:  stream,
		Message: message,
	}
}
