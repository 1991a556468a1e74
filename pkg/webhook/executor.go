package webhook

import (
	"context"
	"io"
	"os"

	"github.com/srand/hookd/pkg/scheduler"
	"github.com/srand/hookd/pkg/utils"
)

// Runs the shell command of the webhook that created a task.
type CommandExecutor struct {
	registry *Registry
}

func NewCommandExecutor(registry *Registry) *CommandExecutor {
	return &CommandExecutor{registry: registry}
}

// The command inherits the environment of hookd, extended with
// HOOKD_TASK_ID and HOOKD_WEBHOOK.
func (e *CommandExecutor) Execute(ctx context.Context, task *scheduler.Task, stdout, stderr io.Writer) (int, error) {
	webhook, err := e.registry.Get(task.Name())
	if err != nil {
		return utils.ExitCodeUnknown, err
	}

	script, err := webhook.Render(task.Parameters())
	if err != nil {
		return utils.ExitCodeUnknown, err
	}

	cmd := utils.NewShellCommand(script)
	cmd.SetStdout(stdout)
	cmd.SetStderr(stderr)
	cmd.SetDir(webhook.Cwd)
	cmd.SetEnv(append(os.Environ(), "HOOKD_TASK_ID="+task.Id(), "HOOKD_WEBHOOK="+task.Name()))

	return cmd.Run(ctx)
}
