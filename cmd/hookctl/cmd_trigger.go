package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"github.com/srand/hookd/pkg/dedup"
	"github.com/srand/hookd/pkg/log"
	"github.com/srand/hookd/pkg/webhook"
)

var triggerCmd = &cobra.Command{
	Use:   "trigger [webhook]",
	Short: "Trigger a webhook",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		assignments, _ := cmd.Flags().GetStringArray("param")
		delivery, _ := cmd.Flags().GetString("delivery")

		parameters, err := parseParameters(assignments)
		if err != nil {
			log.Fatal(err)
		}

		body, err := json.Marshal(webhook.Payload{Parameters: parameters})
		if err != nil {
			log.Fatal(err)
		}

		ctx, cancel := DefaultDeadlineContext()
		defer cancel()

		client := NewClient(configData)

		req, err := client.NewRequest(ctx, http.MethodPost, args[0], body)
		if err != nil {
			log.Fatal(err)
		}

		if delivery != "" {
			req.Header.Set(dedup.DefaultHeader, delivery)
		}

		response, err := client.Do(req)
		if err != nil {
			log.Fatal(err)
		}
		defer response.Body.Close()

		result := webhook.SubmitResponse{}
		if err := json.NewDecoder(response.Body).Decode(&result); err != nil {
			log.Fatal(err)
		}

		if result.Duplicate {
			fmt.Println("duplicate delivery, no task created")
			return
		}

		fmt.Println(result.ID)
	},
}

// Parses key=value assignments.
func parseParameters(assignments []string) (map[string]string, error) {
	parameters := map[string]string{}
	for _, assignment := range assignments {
		key, value, ok := strings.Cut(assignment, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", assignment)
		}
		parameters[key] = value
	}
	return parameters, nil
}

func init() {
	triggerCmd.Flags().StringArrayP("param", "p", nil, "Webhook parameter as key=value (repeatable)")
	triggerCmd.Flags().StringP("delivery", "d", "", "Delivery id, repeated deliveries are ignored by the server")
	rootCmd.AddCommand(triggerCmd)
}
