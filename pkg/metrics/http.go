package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Register the Prometheus exposition route.
func NewHttpHandler(collector *Collector, r *echo.Echo, middleware ...echo.MiddlewareFunc) {
	handler := promhttp.HandlerFor(collector.Registry(), promhttp.HandlerOpts{})
	r.GET("/metrics", echo.WrapHandler(handler), middleware...)
}
