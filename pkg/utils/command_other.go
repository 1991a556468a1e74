//go:build !linux

package utils

import (
	"os"
	"os/exec"
)

type Command struct {
	cmd *exec.Cmd
}

func NewCommand(args ...string) *Command {
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return &Command{cmd: cmd}
}

func (c *Command) Kill() error {
	return c.cmd.Process.Kill()
}

func (c *Command) GetPid() int {
	return c.cmd.Process.Pid
}
