//go:build linux

package utils

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

type Command struct {
	cmd *exec.Cmd
}

// NewCommand creates a command placed in its own process group,
// so that Kill also reaches any children it spawns.
func NewCommand(args ...string) *Command {
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Pgid: 0}
	return &Command{cmd: cmd}
}

func (c *Command) Kill() error {
	return unix.Kill(-c.GetPid(), unix.SIGKILL)
}

func (c *Command) GetPid() int {
	return c.cmd.Process.Pid
}
