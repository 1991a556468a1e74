package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/srand/hookd/pkg/log"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Query the server health service",
	Run: func(cmd *cobra.Command, args []string) {
		service, _ := cmd.Flags().GetString("service")

		ctx, cancel := DefaultDeadlineContext()
		defer cancel()

		conn := NewHealthConn()
		defer conn.Close()

		client := healthpb.NewHealthClient(conn)
		response, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		if err != nil {
			log.Fatal(err)
		}

		fmt.Println(response.Status)

		if response.Status != healthpb.HealthCheckResponse_SERVING {
			os.Exit(1)
		}
	},
}

func init() {
	healthCmd.Flags().String("service", "hookd", "Service name to check")
	rootCmd.AddCommand(healthCmd)
}
