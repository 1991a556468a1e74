package utils

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/srand/hookd/pkg/log"
)

func HttpLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		log.Tracef("%4s %s %v %s %v", c.Request().Method, c.Request().URL, c.Response().Status, c.RealIP(), time.Since(start))
		return err
	}
}
