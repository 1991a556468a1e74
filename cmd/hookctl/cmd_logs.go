package main

import (
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"
	"github.com/srand/hookd/pkg/log"
)

var logsCmd = &cobra.Command{
	Use:   "logs [task-id]",
	Short: "Display task output",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		streams, _ := cmd.Flags().GetStringSlice("stream")

		path := "/logs/" + url.PathEscape(args[0])
		if len(streams) > 0 {
			path += "?" + url.Values{"stream": streams}.Encode()
		}

		ctx, cancel := DefaultDeadlineContext()
		defer cancel()

		client := NewClient(configData)

		req, err := client.NewRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			log.Fatal(err)
		}

		response, err := client.Do(req)
		if err != nil {
			log.Fatal(err)
		}
		defer response.Body.Close()

		if _, err := io.Copy(os.Stdout, response.Body); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	logsCmd.Flags().StringSliceP("stream", "t", nil, "Only show the given streams: stdout, stderr, system")
	rootCmd.AddCommand(logsCmd)
}
