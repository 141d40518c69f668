package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// CommandRunner abstracts short-lived command execution with captured output.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, []byte, int32, error)
}

// StreamRunner abstracts long-lived command execution attached to caller streams.
type StreamRunner interface {
	Stream(ctx context.Context, cmd Command) (int32, error)
}

// Command describes one process spawn. A nil Env inherits the parent environment.
type Command struct {
	Name   string
	Args   []string
	Env    []string
	Dir    string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// ErrSpawn marks a Stream failure where the process never started.
var ErrSpawn = errors.New("tools: process could not be started")

// ExecRunner executes commands on the local host.
type ExecRunner struct{}

// tools command-runner implementation backed by os/exec.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, int32, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), ExitCode(err), err
}

// Stream runs c to completion with its stdio wired to the given readers and writers.
func (r ExecRunner) Stream(ctx context.Context, c Command) (int32, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Env = c.Env
	cmd.Dir = c.Dir
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return ExitCode(err), fmt.Errorf("%w: %w", ErrSpawn, err)
	}
	return ExitCode(err), err
}

// ExitCode maps an os/exec error to a process exit code. 127 marks a binary
// that could not be started at all.
func ExitCode(err error) int32 {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return int32(exitErr.ExitCode())
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return 127
	}
	return 1
}
