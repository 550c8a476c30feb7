package runner

import (
	"context"
	"os/exec"
	"time"
)

// CommandRunner abstracts external process execution so transports can be
// exercised in tests without spawning real processes.
type CommandRunner interface {
	Run(ctx context.Context, timeout time.Duration, env []string,
		name string, args ...string) ([]byte, error)
}

type ExecRunner struct{}

func (ExecRunner) Run(
	parent context.Context,
	timeout time.Duration,
	env []string,
	name string,
	args ...string,
) ([]byte, error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	if env != nil {
		cmd.Env = env
	}
	return cmd.Output()
}
