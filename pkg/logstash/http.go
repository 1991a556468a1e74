package logstash

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	echo "github.com/labstack/echo/v4"
	"github.com/srand/hookd/pkg/protocol"
	"github.com/srand/hookd/pkg/utils"
)

var streamNames = map[string]protocol.LogStream{
	"stdout": protocol.LogStream_STDOUT,
	"stderr": protocol.LogStream_STDERR,
	"system": protocol.LogStream_SYSTEM,
}

// Register the task log route.
// The stream query parameter, repeatable, limits output to the given streams.
func NewHttpHandler(stash LogStash, r *echo.Echo, middleware ...echo.MiddlewareFunc) {
	r.GET("/logs/:id", func(c echo.Context) error {
		id := c.Param("id")
		if _, err := uuid.Parse(id); err != nil {
			return utils.HttpError(fmt.Errorf("%w: invalid task id %q", utils.ErrNotFound, id))
		}

		streams := []protocol.LogStream{}
		for _, name := range c.QueryParams()["stream"] {
			stream, ok := streamNames[name]
			if !ok {
				return utils.HttpError(fmt.Errorf("%w: unknown stream %q", utils.ErrBadRequest, name))
			}
			streams = append(streams, stream)
		}

		reader, err := stash.Read(id)
		if err != nil {
			return utils.HttpError(fmt.Errorf("%w: no log for task %s", utils.ErrNotFound, id))
		}

		filtered := NewFilteredLogReader(reader)
		defer filtered.Close()

		if len(streams) > 0 {
			filtered.AddStreamFilter(streams...)
		}

		c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
		c.Response().WriteHeader(http.StatusOK)
		writer := bufio.NewWriter(c.Response())
		defer writer.Flush()

		for {
			record, err := filtered.ReadLine()
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}

			if err != nil {
				return err
			}

			if _, err := writer.WriteString(FormatLine(record)); err != nil {
				return err
			}
		}
	}, middleware...)
}

// Format a log line for display.
func FormatLine(record *protocol.LogLine) string {
	ts := record.Time.AsTime().Local()
	return fmt.Sprintf(
		"%s.%06d [%6s] %s\n",
		ts.Format("2006-01-02 15:04:05"),
		ts.Nanosecond()/1000,
		record.Stream.String(),
		record.Message)
}
