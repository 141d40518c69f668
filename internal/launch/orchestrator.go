package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/danmuck/mergectl/internal/observability"
	"github.com/danmuck/mergectl/internal/provision"
	"github.com/danmuck/mergectl/internal/pyenv"
	"github.com/danmuck/mergectl/internal/tools"
	"github.com/rs/zerolog/log"
)

// Activator resolves a provisioned environment.
type Activator interface {
	Activate() (pyenv.Activation, error)
}

// Options configures an Orchestrator. Zero values fall back to the host
// process: os.Environ, the real stdio, runtime.GOOS and tools.ExecRunner.
type Options struct {
	Env        Activator
	ToolBinDir string
	Entry      string
	ModeFlag   string
	WorkDir    string
	Runner     tools.StreamRunner
	Pauser     Pauser
	BaseEnv    func() []string
	GOOS       string
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
}

// Orchestrator runs the application inside the provisioned environment with
// the external tool on its search path.
type Orchestrator struct {
	opts Options
}

func NewOrchestrator(opts Options) (*Orchestrator, error) {
	if opts.Env == nil {
		return nil, fmt.Errorf("%w: environment is required", provision.ErrApplicationLaunch)
	}
	if strings.TrimSpace(opts.Entry) == "" {
		return nil, fmt.Errorf("%w: entry script is required", provision.ErrApplicationLaunch)
	}
	if opts.Runner == nil {
		opts.Runner = tools.ExecRunner{}
	}
	if opts.Pauser == nil {
		opts.Pauser = NoPause{}
	}
	if opts.BaseEnv == nil {
		opts.BaseEnv = os.Environ
	}
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Orchestrator{opts: opts}, nil
}

// Overlay builds the child environment edits for an activation: tool bin dir
// first, then the environment's bin dir, then the inherited search path.
func (o *Orchestrator) Overlay(act pyenv.Activation) *Overlay {
	return NewOverlay(o.opts.GOOS).
		PrependPath("PATH", o.opts.ToolBinDir, act.BinDir).
		Set("VIRTUAL_ENV", act.Dir).
		Unset("PYTHONHOME")
}

// Run launches the application, waits for it and then pauses. The returned
// code is the child's exit code, or 1 when it never ran; err is non-nil only
// when the application could not be started.
func (o *Orchestrator) Run(ctx context.Context) (int, error) {
	code, err := o.run(ctx)
	observability.RecordLaunchExit(o.opts.Entry, code)
	if perr := o.opts.Pauser.Pause(); perr != nil {
		log.Debug().Err(perr).Msg("pause interrupted")
	}
	return code, err
}

func (o *Orchestrator) run(ctx context.Context) (int, error) {
	logger, done := observability.Step("launch", o.opts.Entry)

	act, err := o.opts.Env.Activate()
	if err != nil {
		logger.Error().Err(err).Msg("environment not provisioned; run setup first")
		done("failed")
		return 1, fmt.Errorf("%w: %w", provision.ErrApplicationLaunch, err)
	}

	if o.opts.ToolBinDir != "" {
		if info, err := os.Stat(o.opts.ToolBinDir); err != nil || !info.IsDir() {
			logger.Warn().Str("bin_dir", o.opts.ToolBinDir).Msg("tool bin dir missing; features that need it will fail")
		}
	}

	args := []string{o.opts.Entry}
	if o.opts.ModeFlag != "" {
		args = append(args, o.opts.ModeFlag)
	}
	env := o.Overlay(act).Apply(o.opts.BaseEnv())
	logger.Info().
		Str("python", act.Python).
		Str("args", strings.Join(args, " ")).
		Str("workdir", o.opts.WorkDir).
		Msg("starting application")

	exit, err := o.opts.Runner.Stream(ctx, tools.Command{
		Name:   act.Python,
		Args:   args,
		Env:    env,
		Dir:    o.opts.WorkDir,
		Stdin:  o.opts.Stdin,
		Stdout: o.opts.Stdout,
		Stderr: o.opts.Stderr,
	})
	if errors.Is(err, tools.ErrSpawn) {
		logger.Error().Err(err).Msg("application could not be started")
		done("failed")
		return 1, fmt.Errorf("%w: %w", provision.ErrApplicationLaunch, err)
	}
	if exit != 0 {
		logger.Warn().Int32("exit", exit).Msg("application exited with error")
	} else {
		logger.Info().Msg("application exited")
	}
	done("applied")
	return int(exit), nil
}
