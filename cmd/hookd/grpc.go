package main

import (
	"context"
	"net"

	"github.com/srand/hookd/pkg/log"
	"github.com/srand/hookd/pkg/scheduler"
	"github.com/srand/hookd/pkg/utils"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Name under which the task coordinator reports its health.
const healthService = "hookd"

// Reports SERVING until the coordinator stops.
func newHealthServer(sched scheduler.Scheduler) *health.Server {
	server := health.NewServer()
	server.SetServingStatus(healthService, healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-sched.Done()
		server.Shutdown()
	}()

	return server
}

// Sets up a gRPC server on a specific listening address and serves it
// until the context is cancelled.
func serveGrpc(ctx context.Context, healthServer *health.Server, uri string) error {
	addr, err := utils.ParseAddress(uri, 9090)
	if err != nil {
		return err
	}

	socket, err := net.Listen(addr.Network, addr.Address)
	if err != nil {
		return err
	}

	if addr.Network == "unix" {
		socket.(*net.UnixListener).SetUnlinkOnClose(true)
		log.Info("Listening on grpc", addr.Network, addr.Address)
	} else {
		log.Info("Listening on grpc", addr.Network, socket.Addr())
	}

	server := grpc.NewServer(config.GRPCOptions.ToServerOptions()...)
	healthpb.RegisterHealthServer(server, healthServer)

	go func() {
		<-ctx.Done()
		server.GracefulStop()
	}()

	return server.Serve(socket)
}
