package toolpkg

import (
	"context"

	"github.com/danmuck/mergectl/internal/provision"
)

// Resource adapts an Acquirer and Package to the provisioning plan.
type Resource struct {
	Acquirer *Acquirer
	Package  Package
}

func (r Resource) Metadata() provision.ResourceMetadata {
	return provision.ResourceMetadata{
		ID:          "tool." + r.Package.Name,
		Kind:        provision.KindTool,
		Description: r.Package.Name + " " + r.Package.Version + " at " + r.Package.InstallPath,
	}
}

func (r Resource) Check(context.Context) (provision.State, error) {
	ok, err := r.Package.Installed()
	if err != nil || !ok {
		return provision.StateAbsent, err
	}
	return provision.StatePresent, nil
}

func (r Resource) Ensure(ctx context.Context) (provision.Outcome, error) {
	installed, err := r.Acquirer.Ensure(ctx, r.Package)
	if installed {
		return provision.OutcomeApplied, err
	}
	return provision.OutcomeSkipped, err
}
