package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/srand/hookd/pkg/auth"
	"github.com/srand/hookd/pkg/dedup"
	"github.com/srand/hookd/pkg/log"
	"github.com/srand/hookd/pkg/logstash"
	"github.com/srand/hookd/pkg/metrics"
	"github.com/srand/hookd/pkg/scheduler"
	"github.com/srand/hookd/pkg/utils"
	"github.com/srand/hookd/pkg/webhook"
)

const shutdownTimeout = 10 * time.Second

type services struct {
	authenticator  *auth.Authenticator
	registry       *webhook.Registry
	scheduler      scheduler.Scheduler
	deliveries     dedup.Store
	deliveryHeader string
	stash          logstash.LogStash
	collector      *metrics.Collector
	bodyLimit      utils.ByteSize
}

// Routes shared by all HTTP listeners.
func newRouter(s *services) *echo.Echo {
	r := echo.New()
	r.HideBanner = true
	r.HidePort = true
	r.Use(utils.HttpLogger)

	// Oversized bodies are rejected with 413 before authentication reads them.
	r.Use(middleware.BodyLimit(fmt.Sprintf("%dB", s.bodyLimit.Int64())))

	authenticated := s.authenticator.Middleware()

	// Static routes take precedence over the webhook name parameter.
	scheduler.NewHttpHandler(s.scheduler, r, authenticated)
	logstash.NewHttpHandler(s.stash, r, authenticated)
	metrics.NewHttpHandler(s.collector, r, authenticated)
	webhook.NewHttpHandler(s.registry, s.scheduler, s.deliveries, s.deliveryHeader, r, authenticated)

	return r
}

// Serves HTTP on a listen address until the context is cancelled.
func serveHttp(ctx context.Context, handler http.Handler, uri string, tlsConfig *tls.Config) error {
	addr, err := utils.ParseAddress(uri, 8000)
	if err != nil {
		return err
	}

	socket, err := net.Listen(addr.Network, addr.Address)
	if err != nil {
		return err
	}

	if addr.Network == "unix" {
		socket.(*net.UnixListener).SetUnlinkOnClose(true)
		log.Info("Listening on http", addr.Network, addr.Address)
	} else {
		log.Info("Listening on http", addr.Network, socket.Addr())
	}

	if tlsConfig != nil {
		socket = tls.NewListener(socket, tlsConfig)
	}

	server := &http.Server{
		Handler:           gzhttp.GzipHandler(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("HTTP shutdown:", err)
		}
	}()

	if err := server.Serve(socket); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
