//go:build linux

package webhook

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/srand/hookd/pkg/scheduler"
	"github.com/srand/hookd/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExecutor(t *testing.T, webhooks ...Webhook) (*Registry, *CommandExecutor) {
	registry, err := NewRegistry(webhooks)
	require.NoError(t, err)
	return registry, NewCommandExecutor(registry)
}

func TestExecutorQuotesParameters(t *testing.T) {
	registry, executor := newExecutor(t, Webhook{
		Name:       "echo",
		Command:    "echo {{ .message }}",
		Parameters: map[string]string{"message": ""},
	})

	task, err := registry.NewTask("echo", map[string]string{"message": "hello; echo injected"})
	require.NoError(t, err)

	stdout := &bytes.Buffer{}
	code, err := executor.Execute(context.Background(), task, stdout, &bytes.Buffer{})
	assert.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "hello; echo injected\n", stdout.String())
}

func TestExecutorWorkingDirectoryAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), []byte("found"), 0o644))

	registry, executor := newExecutor(t, Webhook{
		Name:    "inspect",
		Command: "cat marker; echo \" $HOOKD_WEBHOOK\"",
		Cwd:     dir,
	})

	task, err := registry.NewTask("inspect", nil)
	require.NoError(t, err)

	stdout := &bytes.Buffer{}
	code, err := executor.Execute(context.Background(), task, stdout, &bytes.Buffer{})
	assert.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "found inspect\n", stdout.String())
}

func TestExecutorExitCode(t *testing.T) {
	registry, executor := newExecutor(t, Webhook{Name: "fail", Command: "echo oops >&2; exit 7"})

	task, err := registry.NewTask("fail", nil)
	require.NoError(t, err)

	stderr := &bytes.Buffer{}
	code, err := executor.Execute(context.Background(), task, &bytes.Buffer{}, stderr)
	assert.Error(t, err)
	assert.Equal(t, 7, code)
	assert.Equal(t, "oops\n", stderr.String())
}

func TestExecutorUnknownWebhook(t *testing.T) {
	_, executor := newExecutor(t)

	code, err := executor.Execute(context.Background(), scheduler.NewTask("gone", nil), &bytes.Buffer{}, &bytes.Buffer{})
	assert.ErrorIs(t, err, utils.ErrNotFound)
	assert.Equal(t, utils.ExitCodeUnknown, code)
}

func TestExecutorDeadline(t *testing.T) {
	registry, executor := newExecutor(t, Webhook{Name: "sleep", Command: "sleep 10"})

	task, err := registry.NewTask("sleep", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	code, err := executor.Execute(ctx, task, &bytes.Buffer{}, &bytes.Buffer{})
	assert.Error(t, err)
	assert.Equal(t, utils.ExitCodeUnknown, code)
	assert.Less(t, time.Since(start), 5*time.Second)
}
