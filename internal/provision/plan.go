package provision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/mergectl/internal/observability"
)

// Plan is the ordered desired-state list evaluated by setup and status.
type Plan struct {
	items []Resource
	ids   map[string]struct{}
}

// NewPlan creates an empty plan.
func NewPlan() *Plan {
	return &Plan{ids: make(map[string]struct{})}
}

// ValidateMetadata checks required metadata fields and id format.
func ValidateMetadata(meta ResourceMetadata) error {
	id := strings.TrimSpace(meta.ID)
	desc := strings.TrimSpace(meta.Description)
	if id == "" || desc == "" || meta.Kind == "" {
		return fmt.Errorf("%w: id, kind, and description are required", ErrInvalidResource)
	}
	if !isValidID(id) {
		return fmt.Errorf("%w: invalid id format %q", ErrInvalidResource, id)
	}
	return nil
}

// Add appends a resource. Order of Add is the order of Apply.
func (p *Plan) Add(res Resource) error {
	if res == nil {
		return ErrResourceNil
	}
	meta := res.Metadata()
	if err := ValidateMetadata(meta); err != nil {
		return err
	}
	if _, ok := p.ids[meta.ID]; ok {
		return fmt.Errorf("%w: %s", ErrResourceExists, meta.ID)
	}
	p.ids[meta.ID] = struct{}{}
	p.items = append(p.items, res)
	return nil
}

// Resources returns the resources in apply order.
func (p *Plan) Resources() []Resource {
	return append([]Resource(nil), p.items...)
}

// Apply ensures every resource in order and halts on the first failure. The
// returned results cover every resource attempted, including the failed one.
func (p *Plan) Apply(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, len(p.items))
	for _, res := range p.items {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		meta := res.Metadata()
		logger, done := observability.Step("provision", meta.ID)
		logger.Debug().Str("kind", string(meta.Kind)).Msg(meta.Description)

		start := time.Now()
		outcome, err := res.Ensure(ctx)
		elapsed := time.Since(start)
		if err != nil {
			outcome = OutcomeFailed
		}
		observability.RecordEnsure(meta.ID, string(meta.Kind), string(outcome), elapsed)
		results = append(results, Result{
			ID:       meta.ID,
			Kind:     meta.Kind,
			Outcome:  outcome,
			Duration: elapsed,
			Err:      err,
		})
		if err != nil {
			logger.Error().Err(err).Msg("ensure failed")
			return results, fmt.Errorf("resource=%q: %w", meta.ID, err)
		}
		done(string(outcome))
	}
	return results, nil
}

// Inspect checks every resource without mutating anything and derives the
// lifecycle phase.
func (p *Plan) Inspect(ctx context.Context) ([]Status, Phase) {
	statuses := make([]Status, 0, len(p.items))
	for _, res := range p.items {
		meta := res.Metadata()
		state, err := res.Check(ctx)
		if err != nil {
			state = StateAbsent
		}
		statuses = append(statuses, Status{
			ID:          meta.ID,
			Kind:        meta.Kind,
			Description: meta.Description,
			State:       state,
			Err:         err,
		})
	}
	return statuses, PhaseOf(statuses)
}

func isValidID(id string) bool {
	if id == "" {
		return false
	}
	lastSep := false
	for i := 0; i < len(id); i++ {
		c := id[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '.' || c == '-' || c == '_'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if i == 0 || i == len(id)-1 {
			if isSep {
				return false
			}
		}
		if isSep && lastSep {
			return false
		}
		lastSep = isSep
	}
	return true
}
