package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/danmuck/mergectl/internal/config"
)

func (a *app) config(_ context.Context, args []string) error {
	if len(args) == 0 || args[0] != "init" {
		return usageErr("usage: mergectl config init [--config PATH] [--workspace DIR] [--force]")
	}
	var common commonFlags
	var force bool
	fs := a.flagSet("config init")
	common.add(fs)
	fs.BoolVar(&force, "force", false, "overwrite an existing config file")
	if done, err := parse(fs, args[1:]); done || err != nil {
		return err
	}

	path := common.configPath
	if path == "" {
		path = filepath.Join(common.workspace, config.DefaultFileName)
	}
	if err := config.WriteTemplate(path, force); err != nil {
		return &exitError{code: 1, err: err}
	}
	fmt.Fprintf(a.stdout, "wrote %s\n", path)
	return nil
}
