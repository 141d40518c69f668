// mergectl provisions the document merger's runtime on one machine and
// launches it.
//
//	mergectl setup    create the environment, install dependencies, fetch the
//	                  external tool and scaffold the workspace
//	mergectl launch   run the application with the tool on its search path
//	mergectl status   report the provisioning phase without changing anything
//	mergectl reset    wipe the application's state files
//	mergectl config init
//	mergectl version
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/danmuck/mergectl/internal/launch"
	"github.com/danmuck/mergectl/internal/logging"
	"github.com/danmuck/mergectl/internal/tools"
	"github.com/rs/zerolog/log"
)

var version = "dev"

// runner is the process seam shared by provisioning and launch.
type runner interface {
	tools.CommandRunner
	tools.StreamRunner
}

// app carries the host dependencies of every subcommand.
type app struct {
	runner  runner
	client  *http.Client
	goos    string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	pauser  launch.Pauser
	baseEnv func() []string
}

func newApp() *app {
	return &app{
		runner:  tools.ExecRunner{},
		client:  http.DefaultClient,
		goos:    runtime.GOOS,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		baseEnv: os.Environ,
	}
}

// exitError carries a process exit code. A nil err exits silently.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func (e *exitError) ExitCode() int { return e.code }

func usageErr(format string, args ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, args...)}
}

func main() {
	logging.ConfigureRuntime()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp().run(ctx, os.Args[1:])
	stop()
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(os.Stderr, "mergectl: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(os.Stderr, "mergectl: %v\n", err)
	return 1
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return usageErr("missing command")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "setup":
		return a.setup(ctx, rest)
	case "launch":
		return a.launch(ctx, rest)
	case "status":
		return a.status(ctx, rest)
	case "reset":
		return a.reset(ctx, rest)
	case "config":
		return a.config(ctx, rest)
	case "version", "--version":
		fmt.Fprintf(a.stdout, "mergectl %s %s/%s\n", version, a.goos, runtime.GOARCH)
		return nil
	case "help", "-h", "--help":
		a.usage()
		return nil
	default:
		a.usage()
		log.Debug().Str("command", cmd).Msg("unknown command")
		return usageErr("unknown command %q", cmd)
	}
}

func (a *app) usage() {
	fmt.Fprint(a.stderr, `usage: mergectl <command> [flags]

commands:
  setup         provision the environment, dependencies, tool and workspace
  launch        run the application
  status        show the provisioning phase
  reset         wipe application state (database, logs, archive, quarantine)
  config init   write a mergectl.toml template
  version       print the version
`)
}
