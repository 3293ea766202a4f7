package service

import (
	"fmt"
	"slices"

	"github.com/set-night/taskreward/internal/domain"
)

// TaskRegistry is the read-only task catalog.
type TaskRegistry struct {
	tasks map[string]domain.TaskDefinition
	order []string
}

func NewTaskRegistry(defs []domain.TaskDefinition) (*TaskRegistry, error) {
	r := &TaskRegistry{
		tasks: make(map[string]domain.TaskDefinition, len(defs)),
		order: make([]string, 0, len(defs)),
	}
	for _, d := range defs {
		if d.Key == "" {
			return nil, fmt.Errorf("task %q: empty key", d.Name)
		}
		if _, dup := r.tasks[d.Key]; dup {
			return nil, fmt.Errorf("task %q: duplicate key", d.Key)
		}
		if d.Reward.IsNegative() {
			return nil, fmt.Errorf("task %q: negative reward", d.Key)
		}
		if d.Wait < 0 {
			return nil, fmt.Errorf("task %q: negative wait", d.Key)
		}
		d.Links = slices.Clone(d.Links)
		r.tasks[d.Key] = d
		r.order = append(r.order, d.Key)
	}
	return r, nil
}

// Lookup returns the definition for key, active or not.
func (r *TaskRegistry) Lookup(key string) (domain.TaskDefinition, bool) {
	d, ok := r.tasks[key]
	if !ok {
		return domain.TaskDefinition{}, false
	}
	d.Links = slices.Clone(d.Links)
	return d, true
}

// Active returns the definition for key or ErrUnknownTask if it is missing or
// switched off.
func (r *TaskRegistry) Active(key string) (domain.TaskDefinition, error) {
	d, ok := r.Lookup(key)
	if !ok || !d.Active {
		return domain.TaskDefinition{}, fmt.Errorf("%w: %s", domain.ErrUnknownTask, key)
	}
	return d, nil
}

// List returns active tasks in catalog order.
func (r *TaskRegistry) List() []domain.TaskDefinition {
	out := make([]domain.TaskDefinition, 0, len(r.order))
	for _, key := range r.order {
		d, _ := r.Lookup(key)
		if d.Active {
			out = append(out, d)
		}
	}
	return out
}
