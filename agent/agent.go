package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/DosakuNet/dosaku/core"
	"github.com/DosakuNet/dosaku/internal/util"
	"github.com/DosakuNet/dosaku/logging"
	"github.com/DosakuNet/dosaku/module"
	"github.com/DosakuNet/dosaku/task"
)

// Agent binds abstract tasks to concrete modules and exposes the bindings as
// callable actors. It holds non-owning references to a shared task hub and
// module manager, owns its actors and sub-agents, and carries the services
// and executors permission flags the module loader gates on.
//
// All exported methods are safe for concurrent use. Concurrent Learn calls
// for the same task are last-writer-wins; a half-built actor is never
// observable.
type Agent struct {
	name    string
	hub     *task.Hub
	manager *module.Manager
	logger  logging.Logger

	mu             sync.RWMutex
	allowServices  bool
	allowExecutors bool
	known          map[string][]string
	knownOrder     []string
	memorized      map[string][]string
	memorizedOrder []string
	actors         map[string]*Actor
	stms           map[string]core.ShortTermModule
	subagents      map[string]*Agent
}

// Options configures a new Agent.
type Options struct {
	// Hub and Manager are shared, non-owned collaborators. When nil a fresh
	// empty hub and a manager bound to it are created.
	Hub     *task.Hub
	Manager *module.Manager
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
	// Permission flags; both default to false.
	EnableServices  bool
	EnableExecutors bool
}

// New constructs an agent. Unless overridden it starts with both permissions
// disabled and its own empty hub/manager pair.
func New(name string, optFns ...func(o *Options)) *Agent {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Hub == nil {
		opts.Hub = task.NewHub()
	}
	if opts.Manager == nil {
		opts.Manager = module.NewManager(opts.Hub)
	}
	return &Agent{
		name:           name,
		hub:            opts.Hub,
		manager:        opts.Manager,
		logger:         opts.Logger,
		allowServices:  opts.EnableServices,
		allowExecutors: opts.EnableExecutors,
		known:          make(map[string][]string),
		memorized:      make(map[string][]string),
		actors:         make(map[string]*Actor),
		stms:           make(map[string]core.ShortTermModule),
		subagents:      make(map[string]*Agent),
	}
}

// Name returns the agent's name.
func (a *Agent) Name() string { return a.name }

// Hub returns the shared task hub.
func (a *Agent) Hub() *task.Hub { return a.hub }

// Manager returns the shared module manager.
func (a *Agent) Manager() *module.Manager { return a.manager }

// LearnOptions configures a Learn call.
type LearnOptions struct {
	// Module names the implementation to bind; empty selects the first
	// registered module for the task.
	Module string
	// ForceRelearn reloads the module instance even when cached.
	ForceRelearn bool
	// Config is forwarded opaquely to the module constructor. Ignored when
	// the module is already loaded and ForceRelearn is false.
	Config core.Config
}

// WithModule selects an explicit module instead of the first-registered default.
func WithModule(name string) func(o *LearnOptions) {
	return func(o *LearnOptions) { o.Module = name }
}

// WithForceRelearn reloads the module instance even when already cached.
func WithForceRelearn() func(o *LearnOptions) {
	return func(o *LearnOptions) { o.ForceRelearn = true }
}

// WithConfig forwards constructor configuration to the module.
func WithConfig(cfg core.Config) func(o *LearnOptions) {
	return func(o *LearnOptions) { o.Config = cfg }
}

// Learn binds a task to a module and exposes it as an actor under the task's
// name. With no explicit module the first registered module for the task is
// used. Any failure (unknown task, no module, permission gate, constructor
// error) propagates unchanged and leaves the agent's known tasks untouched.
// Re-learning a task replaces the prior binding.
func (a *Agent) Learn(taskName string, optFns ...func(o *LearnOptions)) error {
	var opts LearnOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if !a.hub.Has(taskName) {
		return &core.TaskNotFoundError{Task: taskName}
	}

	moduleName := opts.Module
	if moduleName == "" {
		mods := a.hub.RegisteredModules(taskName)
		if len(mods) == 0 {
			return &core.ModuleForTaskNotFoundError{Task: taskName}
		}
		moduleName = mods[0]
	}

	a.logger.Info("agent.learn", "agent", a.name, "task", taskName, "module", moduleName)

	_, err := a.manager.Load(moduleName, module.LoadOptions{
		ForceReload:    opts.ForceRelearn,
		AllowServices:  a.ServicesEnabled(),
		AllowExecutors: a.ExecutorsEnabled(),
		Config:         opts.Config,
	})
	if err != nil {
		return err
	}

	api, err := a.hub.API(taskName)
	if err != nil {
		return err
	}

	// The actor is assembled fully before it becomes visible on the agent.
	actor := newActor(a.name, taskName, moduleName)
	for _, action := range api {
		fn, err := a.manager.Attr(moduleName, action)
		if err != nil {
			return err
		}
		actor.attach(action, fn)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, known := a.known[taskName]; !known {
		a.knownOrder = append(a.knownOrder, taskName)
	}
	a.known[taskName] = api
	a.actors[taskName] = actor
	return nil
}

// Memorize attaches a short-term module directly under its own name: no
// registry lookup and no permission gate, because ephemeral capabilities are
// trusted by construction. Without explicit actions the full API of the
// short-term module is recorded, in its order; explicit names must all exist
// on the module or the agent is left unchanged.
func (a *Agent) Memorize(stm core.ShortTermModule, actions ...string) error {
	api := stm.API()
	bound := make(map[string]core.BoundAction, len(api))
	for _, ba := range api {
		bound[ba.Name] = ba
	}

	selected := actions
	if len(selected) == 0 {
		selected = make([]string, len(api))
		for i, ba := range api {
			selected[i] = ba.Name
		}
	} else {
		for _, name := range selected {
			if _, ok := bound[name]; !ok {
				return fmt.Errorf("short-term module %q has no action %q", stm.Name(), name)
			}
		}
	}

	actor := newActor(a.name, stm.Name(), stm.Name())
	for _, name := range selected {
		actor.attach(name, bound[name].Fn)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.memorized[stm.Name()]; !ok {
		a.memorizedOrder = append(a.memorizedOrder, stm.Name())
	}
	a.memorized[stm.Name()] = selected
	a.stms[stm.Name()] = stm
	a.actors[stm.Name()] = actor

	a.logger.Info("agent.memorize", "agent", a.name, "module", stm.Name(), "actions", selected)
	return nil
}

// MemorizeFromContext memorizes the short-term module held in the context's
// working-memory slot, appends an assistant note naming the memorized
// capability to the context's conversation and returns the mutated context.
// A hand-built context without a conversation gets an empty one.
func (a *Agent) MemorizeFromContext(c *core.Context) (*core.Context, error) {
	if c == nil || c.ShortTermMemory == nil {
		return nil, fmt.Errorf("context carries no short-term module to memorize")
	}
	if err := a.Memorize(c.ShortTermMemory); err != nil {
		return nil, err
	}
	if c.Conversation == nil {
		c.Conversation = core.NewConversation()
	}
	c.Conversation.Add(core.NewMessage("assistant", fmt.Sprintf(
		"Memorized the short-term module %s from the context's working memory.",
		c.ShortTermMemory.Name())))
	return c, nil
}

// Task returns the actor bound under a learned or memorized task name.
func (a *Agent) Task(name string) (*Actor, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	actor, ok := a.actors[name]
	if !ok {
		return nil, &core.TaskNotFoundError{Task: name}
	}
	return actor, nil
}

// Call is a convenience dispatching task/action through the bound actor.
func (a *Agent) Call(ctx context.Context, taskName, action string, args map[string]any) (any, error) {
	actor, err := a.Task(taskName)
	if err != nil {
		return nil, err
	}
	return actor.Call(ctx, action, args)
}

// ShortTermModule returns the direct reference to a memorized module.
func (a *Agent) ShortTermModule(name string) (core.ShortTermModule, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	stm, ok := a.stms[name]
	return stm, ok
}

// LearnableTasks returns every task name known to the task hub.
func (a *Agent) LearnableTasks() []string { return a.hub.Tasks() }

// KnownTasks returns the learned task names in first-learned order.
func (a *Agent) KnownTasks() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, len(a.knownOrder))
	copy(out, a.knownOrder)
	return out
}

// MemorizedTasks returns the memorized task names in first-memorized order.
func (a *Agent) MemorizedTasks() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, len(a.memorizedOrder))
	copy(out, a.memorizedOrder)
	return out
}

// Tasks returns all known tasks, both learned and memorized.
func (a *Agent) Tasks() []string {
	return append(a.KnownTasks(), a.MemorizedTasks()...)
}

// API returns the action names for a task: its hub declaration when
// registered, else the recorded action list of a memorized module.
func (a *Agent) API(taskName string) ([]string, error) {
	if api, err := a.hub.API(taskName); err == nil {
		return api, nil
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if actions, ok := a.memorized[taskName]; ok {
		out := make([]string, len(actions))
		copy(out, actions)
		return out, nil
	}
	return nil, &core.TaskNotFoundError{Task: taskName}
}

// Doc returns documentation for a task or one of its actions.
func (a *Agent) Doc(taskName, action string) (string, error) {
	return a.hub.Doc(taskName, action)
}

// RegisteredModules returns the modules registered for a task, in
// registration order.
func (a *Agent) RegisteredModules(taskName string) []string {
	return a.hub.RegisteredModules(taskName)
}

// LoadedModules returns the names of modules the manager has loaded.
func (a *Agent) LoadedModules() []string { return a.manager.Loaded() }

// SubagentOptions configures SpawnSubagent. Unset flags inherit the parent's
// current flags at spawn time; they are not live-linked afterwards.
type SubagentOptions struct {
	EnableServices  *bool
	EnableExecutors *bool
}

// WithServices explicitly sets the child's services flag.
func WithServices(v bool) func(o *SubagentOptions) {
	return func(o *SubagentOptions) { o.EnableServices = &v }
}

// WithExecutors explicitly sets the child's executors flag.
func WithExecutors(v bool) func(o *SubagentOptions) {
	return func(o *SubagentOptions) { o.EnableExecutors = &v }
}

// SpawnSubagent creates and owns a child agent sharing this agent's hub,
// manager and logger. Sub-agent names are unique within their parent.
func (a *Agent) SpawnSubagent(name string, optFns ...func(o *SubagentOptions)) (*Agent, error) {
	var opts SubagentOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	services := util.IfNone(opts.EnableServices, a.ServicesEnabled())
	executors := util.IfNone(opts.EnableExecutors, a.ExecutorsEnabled())

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.subagents[name]; exists {
		return nil, &core.DuplicateRegistrationError{Kind: "subagent", Name: name}
	}
	child := New(name, func(o *Options) {
		o.Hub = a.hub
		o.Manager = a.manager
		o.Logger = a.logger
		o.EnableServices = services
		o.EnableExecutors = executors
	})
	a.subagents[name] = child
	return child, nil
}

// RemoveSubagent detaches the named child, freeing the name for reuse.
// Removing an absent name is a no-op.
func (a *Agent) RemoveSubagent(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.subagents, name)
}

// Subagent returns the named child agent.
func (a *Agent) Subagent(name string) (*Agent, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	child, ok := a.subagents[name]
	return child, ok
}

// Subagents returns the names of all current children.
func (a *Agent) Subagents() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.subagents))
	for name := range a.subagents {
		out = append(out, name)
	}
	return out
}

// EnableServices grants the agent permission to load network-backed modules.
func (a *Agent) EnableServices() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.allowServices = true
}

// DisableServices revokes the services permission for future loads.
func (a *Agent) DisableServices() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.allowServices = false
}

// ServicesEnabled reports the services permission flag.
func (a *Agent) ServicesEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.allowServices
}

// AssertServicesEnabled is a guard for operations layered on top of the core
// that want to gate on the services permission before attempting a load.
func (a *Agent) AssertServicesEnabled() error {
	if !a.ServicesEnabled() {
		return &core.ServicePermissionRequiredError{Name: fmt.Sprintf("agent %q", a.name)}
	}
	return nil
}

// EnableExecutors grants the agent permission to load code-executing modules.
func (a *Agent) EnableExecutors() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.allowExecutors = true
}

// DisableExecutors revokes the executors permission for future loads.
func (a *Agent) DisableExecutors() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.allowExecutors = false
}

// ExecutorsEnabled reports the executors permission flag.
func (a *Agent) ExecutorsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.allowExecutors
}

// AssertExecutorsEnabled is the executors counterpart of AssertServicesEnabled.
func (a *Agent) AssertExecutorsEnabled() error {
	if !a.ExecutorsEnabled() {
		return &core.ExecutorPermissionRequiredError{Name: fmt.Sprintf("agent %q", a.name)}
	}
	return nil
}
