package scheduler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/srand/hookd/pkg/utils"
)

// Register the queue projection route.
func NewHttpHandler(scheduler Scheduler, r *echo.Echo, middleware ...echo.MiddlewareFunc) {
	r.GET("/", func(c echo.Context) error {
		snapshot, err := scheduler.Snapshot()
		if err != nil {
			return utils.HttpError(err)
		}

		return c.JSON(http.StatusOK, snapshot)
	}, middleware...)
}
