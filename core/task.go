package core

import "strings"

// CallOperator is the reserved action name for the call-operator hook. A
// module that declares it makes the task invocable directly; the hook must
// delegate to the task's primary action with identical semantics.
const CallOperator = "__call__"

// IsOperator reports whether an action name uses the reserved
// double-underscore form that marks structural protocol hooks. Operator
// actions are bound at the Actor's operator table so that one binding's hook
// can never leak into another.
func IsOperator(action string) bool {
	return len(action) > 4 && strings.HasPrefix(action, "__") && strings.HasSuffix(action, "__")
}

// ActionSpec declares a single abstract action of a task.
type ActionSpec struct {
	// Action name (snake_case, or the reserved __name__ operator form)
	Name string
	// Documentation shown via Hub.Doc and Agent.Doc
	Doc string
}

// Task declares an abstract, named capability interface: a globally unique
// name plus an ordered, documented action set. Tasks are immutable values;
// they are declared once and registered explicitly with a task hub.
//
// An action's contract must state whether it returns a completed value or a
// *Stream of cumulative partial values; a given invocation is unambiguous
// about which it returns.
type Task struct {
	Name    string
	Doc     string
	Actions []ActionSpec
}

// API returns the task's action names in declaration order.
func (t Task) API() []string {
	api := make([]string, len(t.Actions))
	for i, a := range t.Actions {
		api[i] = a.Name
	}
	return api
}

// Action returns the spec for the named action.
func (t Task) Action(name string) (ActionSpec, bool) {
	for _, a := range t.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return ActionSpec{}, false
}
