package scheduler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexReturnsSnapshot(t *testing.T) {
	c, _ := startCoordinator(t, NewWorkerPool(2, echoExecutor), WithInstance("host-1"))

	r := echo.New()
	NewHttpHandler(c, r)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"instance":"host-1","workers":2,"queued":[],"running":[],"recent_history":[]}`, rec.Body.String())
}

func TestIndexWhenStopped(t *testing.T) {
	c, err := NewCoordinator(NewWorkerPool(1, echoExecutor))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Run(ctx)

	r := echo.New()
	NewHttpHandler(c, r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestIndexMiddleware(t *testing.T) {
	c, _ := startCoordinator(t, NewWorkerPool(1, echoExecutor))

	deny := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return echo.NewHTTPError(http.StatusUnauthorized)
		}
	}

	r := echo.New()
	NewHttpHandler(c, r, deny)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
