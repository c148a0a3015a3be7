package task

import (
	"fmt"
	"sync"

	"github.com/DosakuNet/dosaku/core"
)

// Hub is the task registry: a catalog of task declarations plus, per task,
// the names of the modules that registered an implementation, in registration
// order. The first registered module is the deterministic default an agent
// learns when no module is named. Safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	tasks   map[string]core.Task
	order   []string
	modules map[string][]string
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{
		tasks:   make(map[string]core.Task),
		modules: make(map[string][]string),
	}
}

// RegisterTask records a task declaration. Re-registering an existing name is
// rejected with a DuplicateRegistrationError; two capabilities must not fight
// over one name.
func (h *Hub) RegisterTask(t core.Task) error {
	if t.Name == "" {
		return fmt.Errorf("task name must not be empty")
	}
	if len(t.Actions) == 0 {
		return fmt.Errorf("task %q declares no actions", t.Name)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.tasks[t.Name]; exists {
		return &core.DuplicateRegistrationError{Kind: "task", Name: t.Name}
	}
	h.tasks[t.Name] = t
	h.order = append(h.order, t.Name)
	return nil
}

// BindModule records that the named module implements the given task. Called
// by the module manager during manifest registration; bindings accumulate in
// registration order. Binding the same pair twice is a no-op.
func (h *Hub) BindModule(taskName, moduleName string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.tasks[taskName]; !ok {
		return &core.TaskNotFoundError{Task: taskName}
	}
	for _, m := range h.modules[taskName] {
		if m == moduleName {
			return nil
		}
	}
	h.modules[taskName] = append(h.modules[taskName], moduleName)
	return nil
}

// Task returns the declaration for a task name.
func (h *Hub) Task(name string) (core.Task, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	t, ok := h.tasks[name]
	return t, ok
}

// Has reports whether the task name is registered.
func (h *Hub) Has(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.tasks[name]
	return ok
}

// Tasks returns all registered task names in registration order.
func (h *Hub) Tasks() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

// API returns the action names a task exposes, in declaration order.
func (h *Hub) API(taskName string) ([]string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	t, ok := h.tasks[taskName]
	if !ok {
		return nil, &core.TaskNotFoundError{Task: taskName}
	}
	return t.API(), nil
}

// Doc returns documentation for a task, or for one of its actions when
// action is non-empty. Unknown tasks and undeclared actions are errors.
func (h *Hub) Doc(taskName, action string) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	t, ok := h.tasks[taskName]
	if !ok {
		return "", &core.TaskNotFoundError{Task: taskName}
	}
	if action == "" {
		return t.Doc, nil
	}
	spec, ok := t.Action(action)
	if !ok {
		return "", fmt.Errorf("task %q declares no action %q", taskName, action)
	}
	return spec.Doc, nil
}

// RegisteredModules returns the module names that registered an
// implementation of the task, in registration order. Nil when the task is
// unknown or has no modules.
func (h *Hub) RegisteredModules(taskName string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	mods := h.modules[taskName]
	if len(mods) == 0 {
		return nil
	}
	out := make([]string, len(mods))
	copy(out, mods)
	return out
}
