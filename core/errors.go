package core

import "fmt"

// TaskNotFoundError reports a query for a task name the hub (or agent) does
// not know.
type TaskNotFoundError struct {
	Task string
}

func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task %q not found", e.Task)
}

// ModuleForTaskNotFoundError reports that no registered module implements a
// task, or that a named module is not registered or not loaded.
type ModuleForTaskNotFoundError struct {
	Task   string
	Module string
}

func (e *ModuleForTaskNotFoundError) Error() string {
	if e.Module == "" {
		return fmt.Sprintf("no registered module implements task %q", e.Task)
	}
	return fmt.Sprintf("module %q not found for task %q", e.Module, e.Task)
}

// ServicePermissionRequiredError reports that an operation needed the
// services permission while it was disabled. Name identifies the module or
// agent the gate fired for.
type ServicePermissionRequiredError struct {
	Name string
}

func (e *ServicePermissionRequiredError) Error() string {
	return fmt.Sprintf("%s requires services to be enabled; call EnableServices first", e.Name)
}

// ExecutorPermissionRequiredError reports that an operation needed the
// executors permission while it was disabled.
type ExecutorPermissionRequiredError struct {
	Name string
}

func (e *ExecutorPermissionRequiredError) Error() string {
	return fmt.Sprintf("%s requires executors to be enabled; call EnableExecutors first", e.Name)
}

// DuplicateRegistrationError reports a name collision at registration time.
// Kind is "task", "module" or "subagent".
type DuplicateRegistrationError struct {
	Kind string
	Name string
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("%s %q is already registered", e.Kind, e.Name)
}
