package provision

import (
	"context"
	"time"
)

type Kind string

const (
	KindEnvironment  Kind = "environment"
	KindDependencies Kind = "dependencies"
	KindTool         Kind = "tool"
	KindDirectory    Kind = "directory"
)

// ResourceMetadata is the identity and display data of one desired-state entry.
type ResourceMetadata struct {
	ID          string
	Kind        Kind
	Description string
}

// State is the observed presence of a resource on disk.
type State string

const (
	StateAbsent  State = "absent"
	StatePresent State = "present"
)

// Outcome records what Ensure did.
type Outcome string

const (
	OutcomeSkipped Outcome = "skipped"
	OutcomeApplied Outcome = "applied"
	OutcomeFailed  Outcome = "failed"
)

// Resource is one required piece of the local environment. Check must not
// mutate anything; Ensure must be idempotent and return OutcomeSkipped when
// the resource is already present.
type Resource interface {
	Metadata() ResourceMetadata
	Check(ctx context.Context) (State, error)
	Ensure(ctx context.Context) (Outcome, error)
}

// Result is the per-resource report of one plan application.
type Result struct {
	ID       string
	Kind     Kind
	Outcome  Outcome
	Duration time.Duration
	Err      error
}

// Status is the per-resource report of a read-only inspection.
type Status struct {
	ID          string
	Kind        Kind
	Description string
	State       State
	Err         error
}
