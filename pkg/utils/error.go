package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

var (
	ErrBadRequest   = fmt.Errorf("Bad request")
	ErrNotFound     = fmt.Errorf("Not found")
	ErrStopped      = fmt.Errorf("Scheduler is stopped")
	ErrUnauthorized = fmt.Errorf("Unauthorized")
	ErrWorkerBusy   = fmt.Errorf("Worker is busy")
)

// Convert errors to echo errors with HTTP status codes
func HttpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrBadRequest):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrStopped):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
