package main

import (
	"context"
	"os"

	"github.com/danmuck/mergectl/internal/launch"
	"github.com/rs/zerolog/log"
)

func (a *app) launch(ctx context.Context, args []string) error {
	var common commonFlags
	var noPause bool
	fs := a.flagSet("launch")
	common.add(fs)
	fs.BoolVar(&noPause, "no-pause", false, "exit as soon as the application does")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	t, err := a.resolve(cfg)
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	orch, err := launch.NewOrchestrator(launch.Options{
		Env:        t.env,
		ToolBinDir: t.tool.BinPath(),
		Entry:      cfg.App.Entry,
		ModeFlag:   cfg.App.ModeFlag,
		WorkDir:    cfg.WorkspaceRoot,
		Runner:     a.runner,
		Pauser:     a.pauserFor(cfg.App.Pause && !noPause),
		BaseEnv:    a.baseEnv,
		GOOS:       a.goos,
		Stdin:      a.stdin,
		Stdout:     a.stdout,
		Stderr:     a.stderr,
	})
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	code, err := orch.Run(ctx)
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	if code != 0 {
		log.Debug().Int("exit", code).Msg("propagating application exit code")
		return &exitError{code: code}
	}
	return nil
}

func (a *app) pauserFor(enabled bool) launch.Pauser {
	if !enabled {
		return launch.NoPause{}
	}
	if a.pauser != nil {
		return a.pauser
	}
	in, ok := a.stdin.(*os.File)
	if !ok {
		return launch.NoPause{}
	}
	return launch.ConsolePauser{In: in, Out: a.stdout}
}
