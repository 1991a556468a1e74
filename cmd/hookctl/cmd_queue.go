package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/srand/hookd/pkg/log"
	"github.com/srand/hookd/pkg/scheduler"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Display queued, running and recently finished tasks",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := DefaultDeadlineContext()
		defer cancel()

		client := NewClient(configData)

		req, err := client.NewRequest(ctx, http.MethodGet, "/", nil)
		if err != nil {
			log.Fatal(err)
		}

		response, err := client.Do(req)
		if err != nil {
			log.Fatal(err)
		}
		defer response.Body.Close()

		snapshot := scheduler.Snapshot{}
		if err := json.NewDecoder(response.Body).Decode(&snapshot); err != nil {
			log.Fatal(err)
		}

		printSnapshot(os.Stdout, &snapshot)
	},
}

func printSnapshot(out io.Writer, snapshot *scheduler.Snapshot) {
	if snapshot.Instance != "" {
		fmt.Fprintf(out, "Instance: %s\n", snapshot.Instance)
	}
	fmt.Fprintf(out, "Workers: %d\n", snapshot.Workers)

	sections := []struct {
		title string
		tasks []scheduler.TaskSummary
	}{
		{"Running", snapshot.Running},
		{"Queued", snapshot.Queued},
		{"Recent", snapshot.RecentHistory},
	}

	for _, section := range sections {
		fmt.Fprintf(out, "\n%s (%d)\n", section.title, len(section.tasks))
		if len(section.tasks) == 0 {
			continue
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  ID\tWEBHOOK\tSTATUS\tWORKER\tCREATED\tRESULT")
		for _, task := range section.tasks {
			worker := "-"
			if task.Worker != nil {
				worker = fmt.Sprint(*task.Worker)
			}

			result := ""
			if task.Result != nil {
				result = fmt.Sprintf("exit %d", task.Result.ExitCode)
				if task.Result.Error != "" {
					result += ": " + task.Result.Error
				}
			}

			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%s\n",
				task.ID,
				task.Name,
				task.Status,
				worker,
				task.CreatedAt.Local().Format(time.RFC3339),
				result,
			)
		}
		w.Flush()
	}
}

func init() {
	rootCmd.AddCommand(queueCmd)
}
