package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/danmuck/mergectl/internal/config"
	"github.com/danmuck/mergectl/internal/provision"
	"github.com/danmuck/mergectl/internal/pyenv"
	"github.com/danmuck/mergectl/internal/toolpkg"
	"github.com/danmuck/mergectl/internal/workspace"
	"github.com/spf13/pflag"
)

// commonFlags are shared by every subcommand that reads the configuration.
type commonFlags struct {
	configPath string
	workspace  string
}

func (c *commonFlags) add(fs *pflag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "config file (default: <workspace>/"+config.DefaultFileName+")")
	fs.StringVar(&c.workspace, "workspace", ".", "workspace root the application runs in")
}

func (a *app) flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("mergectl "+name, pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parse reports done=true when help was requested.
func parse(fs *pflag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return true, nil
		}
		return false, usageErr("%v", err)
	}
	if extra := fs.Args(); len(extra) > 0 {
		return false, usageErr("unexpected argument: %s", strings.Join(extra, " "))
	}
	return false, nil
}

func (c commonFlags) load() (config.Config, error) {
	root, err := filepath.Abs(c.workspace)
	if err != nil {
		return config.Config{}, err
	}
	return config.Load(c.configPath, root)
}

// target is the resolved desired state for one workspace.
type target struct {
	cfg        config.Config
	env        *pyenv.Environment
	tool       toolpkg.Package
	scaffolder *workspace.Scaffolder
}

func (a *app) resolve(cfg config.Config) (*target, error) {
	env, err := pyenv.New(pyenv.Options{
		Dir:         cfg.Path(cfg.Environment.Dir),
		Interpreter: cfg.Environment.Interpreter,
		GOOS:        a.goos,
		Runner:      a.runner,
	})
	if err != nil {
		return nil, err
	}
	tool, err := toolpkg.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	scaffolder, err := workspace.NewScaffolder(cfg.WorkspaceRoot)
	if err != nil {
		return nil, err
	}
	return &target{cfg: cfg, env: env, tool: tool, scaffolder: scaffolder}, nil
}

// plan orders the resources the way setup must apply them: environment,
// dependencies, external tool, then directories.
func (a *app) plan(t *target) (*provision.Plan, error) {
	acquirer := toolpkg.NewAcquirer()
	if a.client != nil {
		acquirer.Client = a.client
	}

	resources := []provision.Resource{
		pyenv.EnvironmentResource{Env: t.env},
		pyenv.DependenciesResource{Env: t.env, Deps: t.cfg.Dependencies},
		toolpkg.Resource{Acquirer: acquirer, Package: t.tool},
	}
	for _, dir := range t.cfg.Directories {
		resources = append(resources, workspace.DirectoryResource{Scaffolder: t.scaffolder, Name: dir})
	}

	plan := provision.NewPlan()
	for _, res := range resources {
		if err := plan.Add(res); err != nil {
			return nil, fmt.Errorf("build plan: %w", err)
		}
	}
	return plan, nil
}
