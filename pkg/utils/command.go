package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/srand/hookd/pkg/log"
)

type DetailedError interface {
	error
	Details() string
}

type commandError struct {
	message  string
	details  string
	exitCode int
}

func NewCmdError(message, details string, exitCode int) error {
	return &commandError{
		message:  message,
		details:  details,
		exitCode: exitCode,
	}
}

func (c *commandError) Details() string {
	return c.details
}

func (c *commandError) Error() string {
	return c.message
}

func (c *commandError) ExitCode() int {
	return c.exitCode
}

// Exit code reported when a command could not be started or was killed.
const ExitCodeUnknown = -1

// NewShellCommand returns a command running script with /bin/sh.
func NewShellCommand(script string) *Command {
	return NewCommand("/bin/sh", "-c", script)
}

func (c *Command) SetStdout(w io.Writer) {
	c.cmd.Stdout = w
}

func (c *Command) SetStderr(w io.Writer) {
	c.cmd.Stderr = w
}

func (c *Command) SetDir(dir string) {
	c.cmd.Dir = dir
}

func (c *Command) SetEnv(env []string) {
	c.cmd.Env = env
}

func (c *Command) String() string {
	return strings.Join(c.cmd.Args, " ")
}

// Run starts the command and waits for it to exit.
// If ctx is done first, the whole process group is killed and the context
// error is returned wrapped in a command error.
// The returned exit code is ExitCodeUnknown when no exit status is available.
func (c *Command) Run(ctx context.Context) (int, error) {
	log.Debug("run - command -", c.String())

	if err := c.cmd.Start(); err != nil {
		return ExitCodeUnknown, NewCmdError(fmt.Sprintf("Command could not be started: %v", err), err.Error(), ExitCodeUnknown)
	}

	done := make(chan error, 1)
	go func() {
		done <- c.cmd.Wait()
	}()

	select {
	case err := <-done:
		return c.result(err)

	case <-ctx.Done():
		if err := c.Kill(); err != nil {
			log.Debug("err - command - kill failed:", err)
		}
		<-done
		return ExitCodeUnknown, NewCmdError(fmt.Sprintf("Command terminated: %v", ctx.Err()), c.String(), ExitCodeUnknown)
	}
}

func (c *Command) result(err error) (int, error) {
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		return code, NewCmdError(fmt.Sprintf("Command failed with exit code %d", code), c.String(), code)
	}

	return ExitCodeUnknown, NewCmdError(fmt.Sprintf("Command failed: %v", err), c.String(), ExitCodeUnknown)
}
