// Package fakerun provides a recording tools.CommandRunner for tests.
package fakerun

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/danmuck/mergectl/internal/tools"
)

type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int32
	Err      error
}

// Runner records every command. Queued Results are consumed in order; Hook,
// when set, runs before a result is returned and can simulate side effects.
type Runner struct {
	mu       sync.Mutex
	Commands [][]string
	Streams  []tools.Command
	Results  []Result
	Hook     func(name string, args []string) error
}

func (r *Runner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Commands = append(r.Commands, append([]string{name}, args...))
	return r.next(name, args)
}

func (r *Runner) Stream(_ context.Context, cmd tools.Command) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Commands = append(r.Commands, append([]string{cmd.Name}, cmd.Args...))
	r.Streams = append(r.Streams, cmd)
	_, _, code, err := r.next(cmd.Name, cmd.Args)
	return code, err
}

func (r *Runner) next(name string, args []string) ([]byte, []byte, int32, error) {
	if r.Hook != nil {
		if err := r.Hook(name, args); err != nil {
			return nil, []byte(err.Error()), 1, err
		}
	}
	if len(r.Results) > 0 {
		res := r.Results[0]
		r.Results = r.Results[1:]
		return res.Stdout, res.Stderr, res.ExitCode, res.Err
	}
	return nil, nil, 0, nil
}

// Joined returns each recorded command as a space-joined string.
func (r *Runner) Joined() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.Commands))
	for _, c := range r.Commands {
		out = append(out, strings.Join(c, " "))
	}
	return out
}

// Reset clears recorded commands.
func (r *Runner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Commands = nil
	r.Streams = nil
}

// SimulateVenv returns a Hook that materializes a venv layout whenever a
// "-m venv <dir>" command runs.
func SimulateVenv(goos string) func(name string, args []string) error {
	return func(_ string, args []string) error {
		if len(args) != 3 || args[0] != "-m" || args[1] != "venv" {
			return nil
		}
		dir := args[2]
		bin, python := filepath.Join(dir, "bin"), "python"
		if goos == "windows" {
			bin, python = filepath.Join(dir, "Scripts"), "python.exe"
		}
		if err := os.MkdirAll(bin, 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, "pyvenv.cfg"), []byte("home = /usr/bin\n"), 0o644); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(bin, python), []byte("#!/bin/sh\n"), 0o755)
	}
}
