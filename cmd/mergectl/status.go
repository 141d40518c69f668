package main

import (
	"context"
	"fmt"
)

func (a *app) status(ctx context.Context, args []string) error {
	var common commonFlags
	fs := a.flagSet("status")
	common.add(fs)
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
	plan, err := a.plan(t)
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	statuses, phase := plan.Inspect(ctx)
	fmt.Fprintf(a.stdout, "workspace: %s\nphase:     %s\n\n", cfg.WorkspaceRoot, phase)
	for _, s := range statuses {
		line := fmt.Sprintf("%-28s %-8s %s", s.ID, s.State, s.Description)
		if s.Err != nil {
			line += fmt.Sprintf(" (error: %v)", s.Err)
		}
		fmt.Fprintln(a.stdout, line)
	}
	return nil
}
