package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// CommandRunner runs an external tool in dir and returns its stdout
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecError describes a failed external command
type ExecError struct {
	Cmd    string
	Args   []string
	Stderr string
	Err    error
}

func (e *ExecError) Error() string {
	code := "unknown"
	if c := e.ExitCode(); c >= 0 {
		code = fmt.Sprintf("%d", c)
	}

	msg := fmt.Sprintf("command failed: %s %s, exit-code: %s, err: %v", e.Cmd, strings.Join(e.Args, " "), code, e.Err)
	if stderr := e.CleanStderr(); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

var ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// CleanStderr returns stderr without ANSI colour codes
func (e *ExecError) CleanStderr() string {
	return strings.TrimSpace(ansiRegexp.ReplaceAllString(e.Stderr, ""))
}

// ExitCode returns the process exit code or -1 when unavailable
func (e *ExecError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// ExecRunner runs commands with os/exec. The process is killed when ctx is
// done.
type ExecRunner struct {
	Env []string
}

// NewExecRunner creates a runner that inherits the process environment plus env
func NewExecRunner(env ...string) *ExecRunner {
	return &ExecRunner{Env: env}
}

func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(r.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ExecError{Cmd: name, Args: args, Stderr: stderr.String(), Err: err}
	}
	return stdout.Bytes(), nil
}

// splitCommand separates a configured argv into name and args
func splitCommand(command []string) (string, []string, error) {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return "", nil, fmt.Errorf("empty command")
	}
	return command[0], append([]string{}, command[1:]...), nil
}
