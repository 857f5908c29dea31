package selector

import (
	"context"
	"fmt"
	"time"

	"BriefingAgent/internal/domain"
)

// Options carries per-run overrides.
type Options struct {
	// ForcedTopicID jumps the rotation to a 1-based topic; zero keeps the
	// stored pointer. Ignored by feed-based selectors.
	ForcedTopicID int
}

// Selector picks the day's generation input for one task type.
type Selector interface {
	Task() domain.TaskType
	Select(ctx context.Context, day time.Time, opts Options) (domain.Selection, error)
}

// Registry keeps a mapping from task types to their selectors.
type Registry struct {
	selectors map[domain.TaskType]Selector
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{selectors: map[domain.TaskType]Selector{}}
}

// Register adds or replaces a selector implementation.
func (r *Registry) Register(selector Selector) {
	if r.selectors == nil {
		r.selectors = map[domain.TaskType]Selector{}
	}
	r.selectors[selector.Task()] = selector
}

// Resolve returns the selector for task or an error if it is absent.
func (r *Registry) Resolve(task domain.TaskType) (Selector, error) {
	if selector, ok := r.selectors[task]; ok {
		return selector, nil
	}
	return nil, fmt.Errorf("selector for %s is not registered: %w", task, domain.ErrUnknownTask)
}
