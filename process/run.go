package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// Run executes cmd and waits for it. A non-zero exit returns both the
// Result and an error; a missing binary returns an error wrapping ErrNotFound.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	c, err := build(ctx, cmd)
	if err != nil {
		return nil, err
	}
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	c.Stdin = cmd.Stdin

	start := time.Now()
	err = c.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if c.ProcessState != nil {
		res.ExitCode = c.ProcessState.ExitCode()
	}
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return res, fmt.Errorf("process: killed by context: %w", ctx.Err())
	}
	return res, fmt.Errorf("process: %s exited with code %d: %w", cmd.Binary, res.ExitCode, err)
}

// LookPath resolves binary, wrapping failures with ErrNotFound.
func LookPath(binary string) (string, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrNotFound, binary, err)
	}
	return path, nil
}

func build(ctx context.Context, cmd Command) (*exec.Cmd, error) {
	if cmd.Binary == "" {
		return nil, errors.New("process: binary is required")
	}
	path, err := LookPath(cmd.Binary)
	if err != nil {
		return nil, err
	}
	grace := cmd.GracePeriod
	if grace <= 0 {
		grace = defaultGracePeriod
	}

	c := exec.CommandContext(ctx, path, cmd.Args...) //nolint:gosec // running caller-selected tools is the point
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = grace
	return c, nil
}
