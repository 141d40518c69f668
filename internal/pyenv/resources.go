package pyenv

import (
	"context"

	"github.com/danmuck/mergectl/internal/config"
	"github.com/danmuck/mergectl/internal/provision"
)

// EnvironmentResource adapts Environment.Ensure to the provisioning plan.
type EnvironmentResource struct {
	Env *Environment
}

func (r EnvironmentResource) Metadata() provision.ResourceMetadata {
	return provision.ResourceMetadata{
		ID:          "env.venv",
		Kind:        provision.KindEnvironment,
		Description: "isolated dependency environment at " + r.Env.Dir(),
	}
}

func (r EnvironmentResource) Check(context.Context) (provision.State, error) {
	ok, err := r.Env.Exists()
	if err != nil || !ok {
		return provision.StateAbsent, err
	}
	return provision.StatePresent, nil
}

func (r EnvironmentResource) Ensure(ctx context.Context) (provision.Outcome, error) {
	created, err := r.Env.Ensure(ctx)
	return outcome(created), err
}

// DependenciesResource adapts Environment.Install to the provisioning plan.
type DependenciesResource struct {
	Env  *Environment
	Deps []config.Dependency
}

func (r DependenciesResource) Metadata() provision.ResourceMetadata {
	return provision.ResourceMetadata{
		ID:          "env.dependencies",
		Kind:        provision.KindDependencies,
		Description: "pip dependency set",
	}
}

func (r DependenciesResource) Check(context.Context) (provision.State, error) {
	ok, err := r.Env.DependenciesCurrent(r.Deps)
	if err != nil || !ok {
		return provision.StateAbsent, err
	}
	return provision.StatePresent, nil
}

func (r DependenciesResource) Ensure(ctx context.Context) (provision.Outcome, error) {
	installed, err := r.Env.Install(ctx, r.Deps)
	return outcome(installed), err
}

func outcome(applied bool) provision.Outcome {
	if applied {
		return provision.OutcomeApplied
	}
	return provision.OutcomeSkipped
}
