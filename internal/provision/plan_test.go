package provision

import (
	"context"
	"errors"
	"testing"

	"github.com/danmuck/mergectl/internal/testutil/testlog"
)

type fakeResource struct {
	meta    ResourceMetadata
	state   State
	outcome Outcome
	err     error
	calls   *[]string
}

func (r *fakeResource) Metadata() ResourceMetadata { return r.meta }

func (r *fakeResource) Check(context.Context) (State, error) {
	return r.state, nil
}

func (r *fakeResource) Ensure(context.Context) (Outcome, error) {
	if r.calls != nil {
		*r.calls = append(*r.calls, r.meta.ID)
	}
	return r.outcome, r.err
}

func newFake(id string, kind Kind, calls *[]string) *fakeResource {
	return &fakeResource{
		meta:    ResourceMetadata{ID: id, Kind: kind, Description: "fake " + id},
		state:   StatePresent,
		outcome: OutcomeSkipped,
		calls:   calls,
	}
}

func TestPlanAddValidatesMetadata(t *testing.T) {
	testlog.Start(t)
	plan := NewPlan()
	if err := plan.Add(nil); !errors.Is(err, ErrResourceNil) {
		t.Fatalf("expected ErrResourceNil, got %v", err)
	}
	bad := newFake("Bad..ID", KindTool, nil)
	if err := plan.Add(bad); !errors.Is(err, ErrInvalidResource) {
		t.Fatalf("expected ErrInvalidResource, got %v", err)
	}
	if err := plan.Add(newFake("tool.poppler", KindTool, nil)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := plan.Add(newFake("tool.poppler", KindTool, nil)); !errors.Is(err, ErrResourceExists) {
		t.Fatalf("expected ErrResourceExists, got %v", err)
	}
}

func TestPlanApplyRunsInOrderAndHaltsOnFailure(t *testing.T) {
	testlog.Start(t)
	var calls []string
	plan := NewPlan()
	first := newFake("env.venv", KindEnvironment, &calls)
	first.outcome = OutcomeApplied
	failing := newFake("tool.poppler", KindTool, &calls)
	failing.err = ErrToolDownload
	last := newFake("workspace.reports", KindDirectory, &calls)
	for _, r := range []Resource{first, failing, last} {
		if err := plan.Add(r); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	results, err := plan.Apply(context.Background())
	if !errors.Is(err, ErrToolDownload) {
		t.Fatalf("expected ErrToolDownload, got %v", err)
	}
	if len(calls) != 2 || calls[0] != "env.venv" || calls[1] != "tool.poppler" {
		t.Fatalf("unexpected ensure order: %v", calls)
	}
	if len(results) != 2 {
		t.Fatalf("unexpected result count: %d", len(results))
	}
	if results[0].Outcome != OutcomeApplied || results[1].Outcome != OutcomeFailed {
		t.Fatalf("unexpected outcomes: %+v", results)
	}
}

func TestPlanApplyStopsOnCanceledContext(t *testing.T) {
	testlog.Start(t)
	var calls []string
	plan := NewPlan()
	if err := plan.Add(newFake("env.venv", KindEnvironment, &calls)); err != nil {
		t.Fatalf("add: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := plan.Apply(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("no resource should run after cancel: %v", calls)
	}
}

func TestPhaseOf(t *testing.T) {
	testlog.Start(t)
	build := func(absent ...Kind) []Status {
		kinds := []Kind{KindEnvironment, KindDependencies, KindTool, KindDirectory}
		out := make([]Status, 0, len(kinds))
		for _, k := range kinds {
			st := StatePresent
			for _, a := range absent {
				if a == k {
					st = StateAbsent
				}
			}
			out = append(out, Status{ID: string(k), Kind: k, State: st})
		}
		return out
	}

	cases := []struct {
		absent []Kind
		want   Phase
	}{
		{[]Kind{KindEnvironment, KindTool}, PhaseNotProvisioned},
		{[]Kind{KindDependencies}, PhaseNotProvisioned},
		{[]Kind{KindTool, KindDirectory}, PhaseProvisionedToolAbsent},
		{[]Kind{KindDirectory}, PhaseProvisionedToolPresent},
		{nil, PhaseReady},
	}
	for _, tc := range cases {
		if got := PhaseOf(build(tc.absent...)); got != tc.want {
			t.Fatalf("absent=%v: got %s want %s", tc.absent, got, tc.want)
		}
	}
}

func TestInspectDoesNotEnsure(t *testing.T) {
	testlog.Start(t)
	var calls []string
	plan := NewPlan()
	tool := newFake("tool.poppler", KindTool, &calls)
	tool.state = StateAbsent
	if err := plan.Add(newFake("env.venv", KindEnvironment, &calls)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := plan.Add(tool); err != nil {
		t.Fatalf("add: %v", err)
	}
	statuses, phase := plan.Inspect(context.Background())
	if len(calls) != 0 {
		t.Fatalf("inspect must not ensure: %v", calls)
	}
	if len(statuses) != 2 || phase != PhaseProvisionedToolAbsent {
		t.Fatalf("unexpected inspection: %+v phase=%s", statuses, phase)
	}
}
