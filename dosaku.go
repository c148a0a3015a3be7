// Package dosaku provides a high-level façade over the task hub, module
// manager and agent packages. Most applications interact with this package
// by:
//  1. Creating an agent via New() (optionally overriding the hub, manager,
//     logger or permission flags)
//  2. Learning tasks (agent.Learn("Chat")) or memorizing short-term modules
//  3. Calling the bound actors (agent.Call, actor.Invoke)
//
// New registers the built-in tasks and module manifests explicitly; nothing
// in this module registers itself as an import side effect.
package dosaku

import (
	"github.com/DosakuNet/dosaku/agent"
	"github.com/DosakuNet/dosaku/core"
	"github.com/DosakuNet/dosaku/logging"
	"github.com/DosakuNet/dosaku/module"
	"github.com/DosakuNet/dosaku/module/claudechat"
	"github.com/DosakuNet/dosaku/module/echo"
	"github.com/DosakuNet/dosaku/module/openaichat"
	"github.com/DosakuNet/dosaku/module/openaiimage"
	"github.com/DosakuNet/dosaku/module/shellexec"
	"github.com/DosakuNet/dosaku/module/zeroshot"
	"github.com/DosakuNet/dosaku/task"
)

// Options configures the façade.
type Options struct {
	// Name of the root agent.
	Name string
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
	// Hub and Manager override the defaults. When both are nil a fresh pair
	// is created and the built-in tasks and modules are registered on it;
	// when either is supplied, registration is left to the caller.
	Hub     *task.Hub
	Manager *module.Manager
	// Permission flags for the root agent; both default to false.
	EnableServices  bool
	EnableExecutors bool
}

// New creates a root agent wired to a task hub and module manager carrying
// the built-in tasks and modules.
func New(optFns ...func(o *Options)) (*agent.Agent, error) {
	opts := Options{Name: "Agent", Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	register := opts.Hub == nil && opts.Manager == nil
	if opts.Hub == nil {
		opts.Hub = task.NewHub()
	}
	if opts.Manager == nil {
		opts.Manager = module.NewManager(opts.Hub, func(o *module.ManagerOptions) {
			o.Logger = opts.Logger
		})
	}
	if register {
		if err := RegisterBuiltins(opts.Hub, opts.Manager); err != nil {
			return nil, err
		}
	}

	return agent.New(opts.Name, func(o *agent.Options) {
		o.Hub = opts.Hub
		o.Manager = opts.Manager
		o.Logger = opts.Logger
		o.EnableServices = opts.EnableServices
		o.EnableExecutors = opts.EnableExecutors
	}), nil
}

// RegisterBuiltins registers the built-in tasks and every built-in module
// manifest. Call it once per hub/manager pair; repeated calls fail with a
// duplicate registration error.
func RegisterBuiltins(h *task.Hub, m *module.Manager) error {
	if err := task.RegisterBuiltins(h); err != nil {
		return err
	}
	manifests := []core.Manifest{
		echo.Manifest(),
		openaichat.Manifest(),
		claudechat.Manifest(),
		zeroshot.Manifest(),
		openaiimage.Manifest(),
		shellexec.Manifest(),
	}
	for _, man := range manifests {
		if err := m.Register(man); err != nil {
			return err
		}
	}
	return nil
}
