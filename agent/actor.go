package agent

import (
	"context"
	"fmt"

	"github.com/DosakuNet/dosaku/core"
)

// Actor holds the callables a single (agent, task) binding selected from a
// loaded module. Every Learn and Memorize builds a fresh Actor, so overriding
// an operator hook for one binding can never affect another task on the same
// agent, or the same task on a different agent.
//
// Regular actions live in the instance table; reserved __name__ actions live
// in the operator table, the explicit stand-in for binding a hook at the
// type level rather than on the instance.
type Actor struct {
	agent  string
	task   string
	module string
	order  []string
	// instance-level capability table
	actions map[string]core.ActionFunc
	// per-binding operator hooks (__call__ etc.)
	operators map[string]core.ActionFunc
}

func newActor(agentName, taskName, moduleName string) *Actor {
	return &Actor{
		agent:     agentName,
		task:      taskName,
		module:    moduleName,
		actions:   make(map[string]core.ActionFunc),
		operators: make(map[string]core.ActionFunc),
	}
}

// attach records a bound callable under the action name, routing operator
// form names to the operator table.
func (a *Actor) attach(action string, fn core.ActionFunc) {
	if core.IsOperator(action) {
		a.operators[action] = fn
	} else {
		a.actions[action] = fn
	}
	a.order = append(a.order, action)
}

// Task returns the task name this actor is bound to.
func (a *Actor) Task() string { return a.task }

// Module returns the name of the module backing this binding.
func (a *Actor) Module() string { return a.module }

// API returns the bound action names in task declaration order.
func (a *Actor) API() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Action returns the bound callable for an action name, consulting both
// tables.
func (a *Actor) Action(name string) (core.ActionFunc, bool) {
	if fn, ok := a.actions[name]; ok {
		return fn, true
	}
	fn, ok := a.operators[name]
	return fn, ok
}

// Call dispatches an action through the capability table.
func (a *Actor) Call(ctx context.Context, action string, args map[string]any) (any, error) {
	fn, ok := a.Action(action)
	if !ok {
		return nil, fmt.Errorf("task %q on agent %q has no bound action %q", a.task, a.agent, action)
	}
	return fn(ctx, args)
}

// Invoke dispatches the call-operator hook, making the binding directly
// invocable. It fails when the backing module declared no __call__ action.
func (a *Actor) Invoke(ctx context.Context, args map[string]any) (any, error) {
	fn, ok := a.operators[core.CallOperator]
	if !ok {
		return nil, fmt.Errorf("task %q on agent %q is not directly invocable", a.task, a.agent)
	}
	return fn(ctx, args)
}
