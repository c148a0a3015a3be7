package module

import (
	"fmt"
	"sync"

	"github.com/DosakuNet/dosaku/core"
	"github.com/DosakuNet/dosaku/logging"
	"github.com/DosakuNet/dosaku/task"
)

// Manager owns module manifests and lazily instantiated module instances,
// cached by module name. Loads are permission-gated against the calling
// agent's flags; the gate fires at load time only, never on calls through an
// already-bound actor.
//
// Concurrency: loads for the same module name are serialized by a per-name
// lock, so at most one completed load per name is ever observable; loads for
// different names proceed in parallel. Reads of a cached instance need no
// further synchronization once visible.
type Manager struct {
	hub    *task.Hub
	logger logging.Logger

	mu        sync.Mutex
	manifests map[string]core.Manifest
	loaded    map[string]core.Module
	loadOrder []string
	loadLocks map[string]*sync.Mutex
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Logger logging.Logger
}

// NewManager constructs a manager bound to a task hub.
func NewManager(hub *task.Hub, optFns ...func(o *ManagerOptions)) *Manager {
	opts := ManagerOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{
		hub:       hub,
		logger:    opts.Logger,
		manifests: make(map[string]core.Manifest),
		loaded:    make(map[string]core.Module),
		loadLocks: make(map[string]*sync.Mutex),
	}
}

// Register records a module manifest and binds the module to every task it
// implements. The manifest's declared action surface must cover the API of
// each of those tasks; a mismatch is rejected here, not discovered at call
// time. Duplicate module names are rejected.
func (m *Manager) Register(man core.Manifest) error {
	if man.Name == "" {
		return fmt.Errorf("module name must not be empty")
	}
	if man.New == nil {
		return fmt.Errorf("module %q has no constructor", man.Name)
	}

	declared := make(map[string]bool, len(man.Actions))
	for _, a := range man.Actions {
		declared[a] = true
	}
	for _, taskName := range man.Tasks {
		api, err := m.hub.API(taskName)
		if err != nil {
			return err
		}
		for _, action := range api {
			if !declared[action] {
				return fmt.Errorf("module %q does not declare action %q required by task %q",
					man.Name, action, taskName)
			}
		}
	}

	m.mu.Lock()
	if _, exists := m.manifests[man.Name]; exists {
		m.mu.Unlock()
		return &core.DuplicateRegistrationError{Kind: "module", Name: man.Name}
	}
	m.manifests[man.Name] = man
	m.mu.Unlock()

	for _, taskName := range man.Tasks {
		if err := m.hub.BindModule(taskName, man.Name); err != nil {
			return err
		}
	}

	m.logger.Debug("module.registered", "module", man.Name, "tasks", man.Tasks)
	return nil
}

// LoadOptions carries the caller's permission flags and constructor
// configuration for a Load.
type LoadOptions struct {
	ForceReload    bool
	AllowServices  bool
	AllowExecutors bool
	Config         core.Config
}

// Load returns the cached instance for name, instantiating it first when not
// yet loaded or when ForceReload is set. On a cache hit the config is
// ignored. Permission requirements are checked before instantiation; on any
// failure nothing is cached and the prior instance, if any, stays in place.
// Constructor errors are returned unchanged so callers can tell a permission
// denial from an implementation that failed to initialize.
func (m *Manager) Load(name string, opts LoadOptions) (core.Module, error) {
	m.mu.Lock()
	man, ok := m.manifests[name]
	if !ok {
		m.mu.Unlock()
		return nil, &core.ModuleForTaskNotFoundError{Module: name}
	}
	lock, ok := m.loadLocks[name]
	if !ok {
		lock = &sync.Mutex{}
		m.loadLocks[name] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	if inst, ok := m.loaded[name]; ok && !opts.ForceReload {
		m.mu.Unlock()
		return inst, nil
	}
	m.mu.Unlock()

	if man.RequiresServices && !opts.AllowServices {
		return nil, &core.ServicePermissionRequiredError{Name: fmt.Sprintf("module %q", name)}
	}
	if man.RequiresExecutors && !opts.AllowExecutors {
		return nil, &core.ExecutorPermissionRequiredError{Name: fmt.Sprintf("module %q", name)}
	}

	inst, err := man.New(opts.Config)
	if err != nil {
		return nil, err
	}
	actions := inst.Actions()
	for _, a := range man.Actions {
		if _, ok := actions[a]; !ok {
			return nil, fmt.Errorf("module %q manifest declares action %q but the instance does not provide it", name, a)
		}
	}

	m.mu.Lock()
	if _, ok := m.loaded[name]; !ok {
		m.loadOrder = append(m.loadOrder, name)
	}
	m.loaded[name] = inst
	m.mu.Unlock()

	m.logger.Info("module.loaded", "module", name, "force_reload", opts.ForceReload)
	return inst, nil
}

// Attr returns the named action bound to the cached instance of a module.
// The module must already be loaded.
func (m *Manager) Attr(moduleName, action string) (core.ActionFunc, error) {
	m.mu.Lock()
	inst, ok := m.loaded[moduleName]
	m.mu.Unlock()
	if !ok {
		return nil, &core.ModuleForTaskNotFoundError{Module: moduleName}
	}
	fn, ok := inst.Actions()[action]
	if !ok {
		return nil, fmt.Errorf("module %q has no action %q", moduleName, action)
	}
	return fn, nil
}

// Manifest returns the registered manifest for a module name.
func (m *Manager) Manifest(name string) (core.Manifest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	man, ok := m.manifests[name]
	return man, ok
}

// Modules returns the names of all registered manifests.
func (m *Manager) Modules() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.manifests))
	for name := range m.manifests {
		out = append(out, name)
	}
	return out
}

// Loaded returns the names of currently loaded modules in first-load order.
func (m *Manager) Loaded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.loadOrder))
	copy(out, m.loadOrder)
	return out
}
