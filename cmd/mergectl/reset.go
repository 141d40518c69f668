package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/danmuck/mergectl/internal/workspace"
)

const resetConfirmation = "RESET"

func (a *app) reset(_ context.Context, args []string) error {
	var common commonFlags
	var yes bool
	fs := a.flagSet("reset")
	common.add(fs)
	fs.BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	scaffolder, err := workspace.NewScaffolder(cfg.WorkspaceRoot)
	if err != nil {
		return &exitError{code: 1, err: err}
	}

	fmt.Fprintln(a.stdout, "This permanently deletes:")
	for _, t := range cfg.Reset.Targets {
		fmt.Fprintf(a.stdout, "  - %s (%s)\n", t.Name, t.Path)
	}
	fmt.Fprintln(a.stdout, "Output folders, the environment and installed tools are kept.")
	if !yes {
		fmt.Fprintf(a.stdout, "Type %s to confirm: ", resetConfirmation)
		line, _ := bufio.NewReader(a.stdin).ReadString('\n')
		if strings.TrimSpace(line) != resetConfirmation {
			fmt.Fprintln(a.stdout, "reset cancelled")
			return nil
		}
	}

	reports, err := scaffolder.Reset(cfg.Reset.Targets)
	for _, r := range reports {
		fmt.Fprintf(a.stdout, "%-12s %-10s %s\n", r.Name, r.Action, r.Path)
	}
	if err != nil {
		return &exitError{code: 1, err: err}
	}
	fmt.Fprintln(a.stdout, "reset complete")
	return nil
}
