package pyenv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/danmuck/mergectl/internal/config"
	"github.com/danmuck/mergectl/internal/provision"
	"github.com/danmuck/mergectl/internal/tools"
	"github.com/rs/zerolog/log"
)

const (
	marker = "pyvenv.cfg"
	// completeFile is written only after the venv command succeeded.
	completeFile = ".mergectl-venv"
)

// Options configures an Environment.
type Options struct {
	Dir         string
	Interpreter string
	GOOS        string
	Runner      tools.CommandRunner
}

// Environment is the isolated dependency environment descriptor.
type Environment struct {
	dir         string
	interpreter string
	goos        string
	runner      tools.CommandRunner
}

// Activation is the explicit replacement for shell activation: resolved paths
// plus the variables a child process needs to run inside the environment.
type Activation struct {
	Dir    string
	BinDir string
	Python string
}

func New(opts Options) (*Environment, error) {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		return nil, fmt.Errorf("%w: environment dir is required", provision.ErrEnvironmentCreation)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	interpreter := strings.TrimSpace(opts.Interpreter)
	if interpreter == "" {
		interpreter = config.DefaultInterpreter(goos)
	}
	runner := opts.Runner
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return &Environment{
		dir:         abs,
		interpreter: interpreter,
		goos:        goos,
		runner:      runner,
	}, nil
}

func (e *Environment) Dir() string { return e.dir }

// BinDir is where the environment places its executables.
func (e *Environment) BinDir() string {
	if e.goos == "windows" {
		return filepath.Join(e.dir, "Scripts")
	}
	return filepath.Join(e.dir, "bin")
}

// Python is the environment's interpreter path.
func (e *Environment) Python() string {
	if e.goos == "windows" {
		return filepath.Join(e.BinDir(), "python.exe")
	}
	return filepath.Join(e.BinDir(), "python")
}

// Exists reports whether a completely created environment is present. A
// descriptor without the completion file is a partial create.
func (e *Environment) Exists() (bool, error) {
	for _, name := range []string{marker, completeFile} {
		_, err := os.Stat(filepath.Join(e.dir, name))
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
	return true, nil
}

// Ensure creates the environment when absent. A partial environment left by
// an earlier failed create is completed in place; a failed create that made
// the directory removes it again.
func (e *Environment) Ensure(ctx context.Context) (bool, error) {
	ok, err := e.Exists()
	if err != nil {
		return false, fmt.Errorf("%w: %v", provision.ErrEnvironmentCreation, err)
	}
	if ok {
		log.Debug().Str("dir", e.dir).Msg("environment present")
		return false, nil
	}
	_, statErr := os.Stat(e.dir)
	preexisting := statErr == nil
	if preexisting {
		log.Warn().Str("dir", e.dir).Msg("incomplete environment found, re-running create")
	}
	if err := os.MkdirAll(filepath.Dir(e.dir), 0o755); err != nil {
		return false, fmt.Errorf("%w: %v", provision.ErrEnvironmentCreation, err)
	}
	if err := e.run(ctx, e.interpreter, "-m", "venv", e.dir); err != nil {
		if !preexisting {
			if rmErr := os.RemoveAll(e.dir); rmErr != nil {
				log.Warn().Err(rmErr).Str("dir", e.dir).Msg("partial environment cleanup failed")
			}
		}
		return false, fmt.Errorf("%w: %w", provision.ErrEnvironmentCreation, err)
	}
	if err := os.WriteFile(filepath.Join(e.dir, completeFile), []byte(e.interpreter+"\n"), 0o644); err != nil {
		return false, fmt.Errorf("%w: mark complete: %v", provision.ErrEnvironmentCreation, err)
	}
	log.Info().Str("dir", e.dir).Str("interpreter", e.interpreter).Msg("environment created")
	return true, nil
}

// Activate resolves the environment for install and launch steps.
func (e *Environment) Activate() (Activation, error) {
	ok, err := e.Exists()
	if err != nil {
		return Activation{}, fmt.Errorf("%w: %v", provision.ErrEnvironmentNotProvisioned, err)
	}
	if !ok {
		return Activation{}, fmt.Errorf("%w: %s missing or incomplete", provision.ErrEnvironmentNotProvisioned, e.dir)
	}
	if _, err := os.Stat(e.Python()); err != nil {
		return Activation{}, fmt.Errorf("%w: interpreter %s: %v", provision.ErrEnvironmentNotProvisioned, e.Python(), err)
	}
	return Activation{
		Dir:    e.dir,
		BinDir: e.BinDir(),
		Python: e.Python(),
	}, nil
}

func (e *Environment) run(ctx context.Context, name string, args ...string) error {
	log.Info().Str("cmd", name).Str("args", strings.Join(args, " ")).Msg("pyenv exec")
	stdout, stderr, exitCode, err := e.runner.Run(ctx, name, args...)
	if err == nil {
		return nil
	}
	return fmt.Errorf(
		"pyenv command failed cmd=%s args=%q exit=%d stdout=%q stderr=%q: %w",
		name,
		strings.Join(args, " "),
		exitCode,
		strings.TrimSpace(string(stdout)),
		strings.TrimSpace(string(stderr)),
		err,
	)
}
