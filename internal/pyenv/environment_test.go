package pyenv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/mergectl/internal/config"
	"github.com/danmuck/mergectl/internal/provision"
	"github.com/danmuck/mergectl/internal/testutil/fakerun"
	"github.com/danmuck/mergectl/internal/testutil/testlog"
)

func newTestEnv(t *testing.T, goos string, runner *fakerun.Runner) *Environment {
	t.Helper()
	env, err := New(Options{
		Dir:    filepath.Join(t.TempDir(), "venv"),
		GOOS:   goos,
		Runner: runner,
	})
	if err != nil {
		t.Fatalf("new environment: %v", err)
	}
	return env
}

func TestEnsureCreatesOnceAndSkipsAfter(t *testing.T) {
	testlog.Start(t)
	runner := &fakerun.Runner{Hook: fakerun.SimulateVenv("linux")}
	env := newTestEnv(t, "linux", runner)

	created, err := env.Ensure(context.Background())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !created {
		t.Fatalf("expected environment creation")
	}
	cmds := runner.Joined()
	if len(cmds) != 1 || cmds[0] != "python3 -m venv "+env.Dir() {
		t.Fatalf("unexpected commands: %v", cmds)
	}

	created, err = env.Ensure(context.Background())
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if created || len(runner.Commands) != 1 {
		t.Fatalf("second ensure must be a no-op: created=%v cmds=%v", created, runner.Joined())
	}
}

func TestEnsureWrapsCreationFailure(t *testing.T) {
	testlog.Start(t)
	runner := &fakerun.Runner{Results: []fakerun.Result{{ExitCode: 127, Err: errors.New("python3 missing")}}}
	env := newTestEnv(t, "linux", runner)
	if _, err := env.Ensure(context.Background()); !errors.Is(err, provision.ErrEnvironmentCreation) {
		t.Fatalf("expected ErrEnvironmentCreation, got %v", err)
	}
}

func TestEnsureRecoversFromFailedCreate(t *testing.T) {
	testlog.Start(t)
	layout := fakerun.SimulateVenv("linux")
	venvCalls := 0
	runner := &fakerun.Runner{Hook: func(name string, args []string) error {
		if err := layout(name, args); err != nil {
			return err
		}
		venvCalls++
		if venvCalls == 1 {
			return errors.New("ensurepip is not available")
		}
		return nil
	}}
	env := newTestEnv(t, "linux", runner)

	if _, err := env.Ensure(context.Background()); !errors.Is(err, provision.ErrEnvironmentCreation) {
		t.Fatalf("expected ErrEnvironmentCreation, got %v", err)
	}
	if _, err := os.Stat(env.Dir()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("failed create should remove the partial environment: %v", err)
	}
	if ok, _ := env.Exists(); ok {
		t.Fatalf("failed create must not look present")
	}

	created, err := env.Ensure(context.Background())
	if err != nil || !created {
		t.Fatalf("retry ensure: created=%v err=%v", created, err)
	}
	if venvCalls != 2 {
		t.Fatalf("retry should run the venv command again, ran %d times", venvCalls)
	}
	if _, err := env.Activate(); err != nil {
		t.Fatalf("activate after retry: %v", err)
	}
}

func TestEnsureCompletesPreexistingPartialEnvironment(t *testing.T) {
	testlog.Start(t)
	runner := &fakerun.Runner{Hook: fakerun.SimulateVenv("linux")}
	env := newTestEnv(t, "linux", runner)
	if err := os.MkdirAll(filepath.Join(env.Dir(), "bin"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(env.Dir(), "pyvenv.cfg"), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if ok, _ := env.Exists(); ok {
		t.Fatalf("descriptor alone must not count as present")
	}

	created, err := env.Ensure(context.Background())
	if err != nil || !created {
		t.Fatalf("ensure: created=%v err=%v", created, err)
	}
	if cmds := runner.Joined(); len(cmds) != 1 || cmds[0] != "python3 -m venv "+env.Dir() {
		t.Fatalf("unexpected commands: %v", cmds)
	}
	if ok, _ := env.Exists(); !ok {
		t.Fatalf("environment should be complete")
	}
}

func TestActivateRequiresEnvironment(t *testing.T) {
	testlog.Start(t)
	env := newTestEnv(t, "linux", &fakerun.Runner{})
	if _, err := env.Activate(); !errors.Is(err, provision.ErrEnvironmentNotProvisioned) {
		t.Fatalf("expected ErrEnvironmentNotProvisioned, got %v", err)
	}

	// pyvenv.cfg without an interpreter is still not usable.
	if err := os.MkdirAll(env.Dir(), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(env.Dir(), "pyvenv.cfg"), nil, 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	if _, err := env.Activate(); !errors.Is(err, provision.ErrEnvironmentNotProvisioned) {
		t.Fatalf("expected ErrEnvironmentNotProvisioned for missing python, got %v", err)
	}
}

func TestActivateWindowsLayout(t *testing.T) {
	testlog.Start(t)
	runner := &fakerun.Runner{Hook: fakerun.SimulateVenv("windows")}
	env := newTestEnv(t, "windows", runner)
	if _, err := env.Ensure(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	act, err := env.Activate()
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if act.BinDir != filepath.Join(env.Dir(), "Scripts") {
		t.Fatalf("unexpected bin dir: %q", act.BinDir)
	}
	if filepath.Base(act.Python) != "python.exe" {
		t.Fatalf("unexpected python: %q", act.Python)
	}
	if !strings.HasPrefix(runner.Joined()[0], "python -m venv") {
		t.Fatalf("windows default interpreter should be python: %v", runner.Joined())
	}
}

func TestInstallUpgradesPipThenInstallsSelectedInOrder(t *testing.T) {
	testlog.Start(t)
	runner := &fakerun.Runner{Hook: fakerun.SimulateVenv("windows")}
	env := newTestEnv(t, "windows", runner)
	if _, err := env.Ensure(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	runner.Reset()

	deps := []config.Dependency{
		{Spec: "pypdf"},
		{Spec: "python-magic", ExcludePlatforms: []string{"windows"}},
		{Spec: "python-magic-bin", Platforms: []string{"windows"}},
	}
	installed, err := env.Install(context.Background(), deps)
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if !installed {
		t.Fatalf("expected install to run")
	}
	py := env.Python()
	want := []string{
		py + " -m pip install --upgrade pip",
		py + " -m pip install pypdf",
		py + " -m pip install python-magic-bin",
	}
	got := runner.Joined()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected commands\nwant: %v\ngot:  %v", want, got)
	}

	current, err := env.DependenciesCurrent(deps)
	if err != nil || !current {
		t.Fatalf("expected dependencies current: %v %v", current, err)
	}

	runner.Reset()
	installed, err = env.Install(context.Background(), deps)
	if err != nil {
		t.Fatalf("second install: %v", err)
	}
	if installed || len(runner.Commands) != 0 {
		t.Fatalf("unchanged set must not invoke pip: %v", runner.Joined())
	}

	deps = append(deps, config.Dependency{Spec: "groq"})
	if current, _ := env.DependenciesCurrent(deps); current {
		t.Fatalf("changed set must not be current")
	}
}

func TestInstallFailureIsFatalAndLeavesNoStamp(t *testing.T) {
	testlog.Start(t)
	runner := &fakerun.Runner{Hook: fakerun.SimulateVenv("linux")}
	env := newTestEnv(t, "linux", runner)
	if _, err := env.Ensure(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	runner.Reset()
	runner.Results = []fakerun.Result{
		{},
		{},
		{ExitCode: 1, Stderr: []byte("no matching distribution"), Err: errors.New("exit status 1")},
	}

	deps := []config.Dependency{{Spec: "pypdf"}, {Spec: "not-a-package"}, {Spec: "groq"}}
	_, err := env.Install(context.Background(), deps)
	if !errors.Is(err, provision.ErrDependencyInstall) {
		t.Fatalf("expected ErrDependencyInstall, got %v", err)
	}
	if !strings.Contains(err.Error(), "not-a-package") {
		t.Fatalf("error should name the package: %v", err)
	}
	if len(runner.Commands) != 3 {
		t.Fatalf("install must halt at the failing package: %v", runner.Joined())
	}
	if current, _ := env.DependenciesCurrent(deps); current {
		t.Fatalf("failed install must not be recorded as current")
	}
}

func TestInstallWithoutEnvironmentFails(t *testing.T) {
	testlog.Start(t)
	runner := &fakerun.Runner{}
	env := newTestEnv(t, "linux", runner)
	_, err := env.Install(context.Background(), []config.Dependency{{Spec: "pypdf"}})
	if !errors.Is(err, provision.ErrDependencyInstall) || !errors.Is(err, provision.ErrEnvironmentNotProvisioned) {
		t.Fatalf("expected wrapped not-provisioned error, got %v", err)
	}
	if len(runner.Commands) != 0 {
		t.Fatalf("no command should run: %v", runner.Joined())
	}
}

func TestResourcesReportState(t *testing.T) {
	testlog.Start(t)
	runner := &fakerun.Runner{Hook: fakerun.SimulateVenv("linux")}
	env := newTestEnv(t, "linux", runner)
	envRes := EnvironmentResource{Env: env}
	depRes := DependenciesResource{Env: env, Deps: []config.Dependency{{Spec: "pypdf"}}}

	if st, _ := envRes.Check(context.Background()); st != provision.StateAbsent {
		t.Fatalf("unexpected env state: %s", st)
	}
	if out, err := envRes.Ensure(context.Background()); err != nil || out != provision.OutcomeApplied {
		t.Fatalf("unexpected env ensure: %s %v", out, err)
	}
	if out, err := depRes.Ensure(context.Background()); err != nil || out != provision.OutcomeApplied {
		t.Fatalf("unexpected deps ensure: %s %v", out, err)
	}
	if out, err := depRes.Ensure(context.Background()); err != nil || out != provision.OutcomeSkipped {
		t.Fatalf("unexpected repeat deps ensure: %s %v", out, err)
	}
	if st, _ := depRes.Check(context.Background()); st != provision.StatePresent {
		t.Fatalf("unexpected deps state: %s", st)
	}
	if err := provision.ValidateMetadata(envRes.Metadata()); err != nil {
		t.Fatalf("env metadata: %v", err)
	}
	if err := provision.ValidateMetadata(depRes.Metadata()); err != nil {
		t.Fatalf("deps metadata: %v", err)
	}
}
