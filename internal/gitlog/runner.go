package gitlog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"gitchangelog/internal/apperr"
	"gitchangelog/internal/logger"
)

// Runner executes git with the given arguments in dir and returns stdout.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// ExecRunner runs the git binary found on PATH (or Binary when set).
type ExecRunner struct {
	Binary string
}

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	binary := r.Binary
	if binary == "" {
		binary = "git"
	}
	logger.GitCommand(dir, args)

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", apperr.Wrap(apperr.ErrToolMissing, fmt.Sprintf("%s executable not found", binary), err)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.String(), &CommandError{Args: args, Stderr: msg, Err: err}
		}
		return stdout.String(), &CommandError{Args: args, Err: err}
	}
	return stdout.String(), nil
}

// CommandError carries git's stderr alongside the exit error.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return e.Stderr
	}
	return e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
