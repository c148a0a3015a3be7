package core

import "context"

// ActionFunc is the uniform callable shape for every bound action. Arguments
// are passed as an opaque key/value map; the result is either a completed
// value or a *Stream of cumulative partials, per the action's contract.
type ActionFunc func(ctx context.Context, args map[string]any) (any, error)

// Config carries opaque constructor keyword arguments forwarded from
// Agent.Learn through the module manager to a module's constructor. The core
// does not validate its shape.
type Config map[string]any

// String returns the string value for key or def when absent or mistyped.
func (c Config) String(key, def string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return def
}

// Bool returns the bool value for key or def when absent or mistyped.
func (c Config) Bool(key string, def bool) bool {
	if v, ok := c[key].(bool); ok {
		return v
	}
	return def
}

// Int returns the int value for key or def when absent. JSON-decoded configs
// carry numbers as float64; both forms are accepted.
func (c Config) Int(key string, def int) int {
	switch v := c[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// Float returns the float64 value for key or def when absent or mistyped.
func (c Config) Float(key string, def float64) float64 {
	switch v := c[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// Module is a live, loaded implementation of one or more tasks. Instances are
// produced exclusively by the module manager from a registered Manifest and
// cached by module name.
type Module interface {
	// Name returns the unique module identifier.
	Name() string

	// Actions returns the module's callable surface keyed by action name.
	// It must cover every action the module's manifest declares.
	Actions() map[string]ActionFunc
}

// Manifest declares a module to the registry without instantiating it: its
// identity, the tasks it implements, its declared action surface, its
// permission requirements and its constructor. The registry stores manifests,
// not instances, until load time.
type Manifest struct {
	// Unique module name
	Name string
	// Human-readable description
	Doc string
	// Names of the tasks this module implements
	Tasks []string
	// Declared action surface; must cover the API of every task in Tasks.
	// A mismatch is a registration-time error, not a call-time surprise.
	Actions []string
	// RequiresServices marks the module as network-backed; loading it
	// requires the services permission.
	RequiresServices bool
	// RequiresExecutors marks the module as executing local code; loading it
	// requires the executors permission.
	RequiresExecutors bool
	// New constructs an instance from opaque configuration. Errors are
	// reported to the caller unchanged.
	New func(cfg Config) (Module, error)
}
