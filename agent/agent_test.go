package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DosakuNet/dosaku/core"
	"github.com/DosakuNet/dosaku/module"
	"github.com/DosakuNet/dosaku/module/echo"
	"github.com/DosakuNet/dosaku/task"
)

type chatModule struct {
	reply func(msg string) string
}

func (m *chatModule) Name() string { return "test" }

func (m *chatModule) Actions() map[string]core.ActionFunc {
	fn := func(_ context.Context, args map[string]any) (any, error) {
		msg, _ := args["message"].(string)
		return m.reply(msg), nil
	}
	return map[string]core.ActionFunc{"message": fn, core.CallOperator: fn}
}

func chatManifest(name string, requiresServices, requiresExecutors bool, reply func(string) string) core.Manifest {
	return core.Manifest{
		Name:              name,
		Tasks:             []string{task.Chat.Name},
		Actions:           []string{"message", core.CallOperator},
		RequiresServices:  requiresServices,
		RequiresExecutors: requiresExecutors,
		New: func(core.Config) (core.Module, error) {
			return &chatModule{reply: reply}, nil
		},
	}
}

// newTestAgent wires an agent to a hub carrying the built-in tasks and a
// manager with EchoBot plus two fakes: UpperBot (no permissions) and
// RemoteChat (requires services).
func newTestAgent(t *testing.T, optFns ...func(o *Options)) *Agent {
	t.Helper()
	h := task.NewHub()
	require.NoError(t, task.RegisterBuiltins(h))
	m := module.NewManager(h)
	require.NoError(t, m.Register(echo.Manifest()))
	require.NoError(t, m.Register(chatManifest("UpperBot", false, false, strings.ToUpper)))
	require.NoError(t, m.Register(chatManifest("RemoteChat", true, false, func(s string) string {
		return "remote: " + s
	})))

	return New("TestAgent", append([]func(o *Options){func(o *Options) {
		o.Hub = h
		o.Manager = m
	}}, optFns...)...)
}

func TestAgentLearn(t *testing.T) {
	t.Run("default module is first registered", func(t *testing.T) {
		a := newTestAgent(t)
		require.NoError(t, a.Learn("Chat"))

		actor, err := a.Task("Chat")
		require.NoError(t, err)
		assert.Equal(t, echo.Name, actor.Module())
		assert.Equal(t, []string{"Chat"}, a.KnownTasks())
		assert.Equal(t, []string{echo.Name}, a.LoadedModules())
	})

	t.Run("explicit module", func(t *testing.T) {
		a := newTestAgent(t)
		require.NoError(t, a.Learn("Chat", WithModule("UpperBot")))

		out, err := a.Call(context.Background(), "Chat", "message", map[string]any{"message": "hi"})
		require.NoError(t, err)
		assert.Equal(t, "HI", out)
	})

	t.Run("unknown task", func(t *testing.T) {
		a := newTestAgent(t)
		err := a.Learn("Telepathy")
		var notFound *core.TaskNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "Telepathy", notFound.Task)
		assert.Empty(t, a.KnownTasks())
	})

	t.Run("task without modules", func(t *testing.T) {
		a := newTestAgent(t)
		err := a.Learn("TextToImage")
		var noModule *core.ModuleForTaskNotFoundError
		require.ErrorAs(t, err, &noModule)
		assert.Equal(t, "TextToImage", noModule.Task)
		assert.NotContains(t, a.KnownTasks(), "TextToImage")
	})

	t.Run("service gate blocks and caches nothing", func(t *testing.T) {
		a := newTestAgent(t)
		err := a.Learn("Chat", WithModule("RemoteChat"))
		var permErr *core.ServicePermissionRequiredError
		require.ErrorAs(t, err, &permErr)
		assert.Empty(t, a.KnownTasks())
		assert.Empty(t, a.LoadedModules())

		a.EnableServices()
		require.NoError(t, a.Learn("Chat", WithModule("RemoteChat")))
		assert.Equal(t, []string{"RemoteChat"}, a.LoadedModules())
	})

	t.Run("actor api matches task declaration", func(t *testing.T) {
		a := newTestAgent(t)
		require.NoError(t, a.Learn("Chat"))

		actor, err := a.Task("Chat")
		require.NoError(t, err)
		api, err := a.API("Chat")
		require.NoError(t, err)
		assert.Equal(t, api, actor.API())
	})

	t.Run("relearn replaces the binding", func(t *testing.T) {
		a := newTestAgent(t)
		require.NoError(t, a.Learn("Chat"))
		require.NoError(t, a.Learn("Chat", WithModule("UpperBot")))

		actor, err := a.Task("Chat")
		require.NoError(t, err)
		assert.Equal(t, "UpperBot", actor.Module())
		assert.Equal(t, []string{"Chat"}, a.KnownTasks(), "relearning must not duplicate the entry")
	})

	t.Run("force relearn rebuilds the instance", func(t *testing.T) {
		a := newTestAgent(t)
		require.NoError(t, a.Learn("Chat"))

		out, err := a.Call(context.Background(), "Chat", "message", map[string]any{"message": "Hello!"})
		require.NoError(t, err)
		assert.Equal(t, `Hi, I'm EchoBot. You said: "Hello!".`, out)

		require.NoError(t, a.Learn("Chat", WithForceRelearn(), WithConfig(core.Config{"stream": true})))
		out, err = a.Call(context.Background(), "Chat", "message", map[string]any{"message": "Hello!"})
		require.NoError(t, err)
		stream, ok := out.(*core.Stream)
		require.True(t, ok, "stream=true must yield a stream")
		assert.Equal(t, `Hi, I'm EchoBot. You said: "Hello!".`, stream.Text())
	})

	t.Run("without force relearn config is ignored", func(t *testing.T) {
		a := newTestAgent(t)
		require.NoError(t, a.Learn("Chat"))
		require.NoError(t, a.Learn("Chat", WithConfig(core.Config{"stream": true})))

		out, err := a.Call(context.Background(), "Chat", "message", map[string]any{"message": "hi"})
		require.NoError(t, err)
		_, isStream := out.(*core.Stream)
		assert.False(t, isStream)
	})
}

func TestAgentLearnConcurrent(t *testing.T) {
	// Racing Learn calls on one task are last-writer-wins; whichever binding
	// wins, the visible actor is always fully assembled and consistent with
	// the module it names.
	a := newTestAgent(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		moduleName := echo.Name
		if i%2 == 1 {
			moduleName = "UpperBot"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, a.Learn("Chat", WithModule(moduleName)))
		}()
	}
	wg.Wait()

	actor, err := a.Task("Chat")
	require.NoError(t, err)
	assert.Contains(t, []string{echo.Name, "UpperBot"}, actor.Module())

	api, err := a.API("Chat")
	require.NoError(t, err)
	assert.Equal(t, api, actor.API())

	out, err := actor.Invoke(context.Background(), map[string]any{"message": "hey"})
	require.NoError(t, err)
	if actor.Module() == echo.Name {
		assert.Equal(t, `Hi, I'm EchoBot. You said: "hey".`, out)
	} else {
		assert.Equal(t, "HEY", out)
	}
	assert.Equal(t, []string{"Chat"}, a.KnownTasks())
}

func TestActorInvoke(t *testing.T) {
	a := newTestAgent(t)
	require.NoError(t, a.Learn("Chat"))

	actor, err := a.Task("Chat")
	require.NoError(t, err)

	out, err := actor.Invoke(context.Background(), map[string]any{"message": "Hello!"})
	require.NoError(t, err)
	assert.Equal(t, `Hi, I'm EchoBot. You said: "Hello!".`, out)

	// The operator is also reachable through Call.
	out, err = actor.Call(context.Background(), core.CallOperator, map[string]any{"message": "Hello!"})
	require.NoError(t, err)
	assert.Equal(t, `Hi, I'm EchoBot. You said: "Hello!".`, out)

	_, err = actor.Call(context.Background(), "nope", nil)
	assert.Error(t, err)
}

func TestOperatorIsolation(t *testing.T) {
	// Two bindings on one agent: overriding __call__ behavior on one task
	// must not leak into the other.
	a := newTestAgent(t)
	require.NoError(t, a.Learn("Chat"))

	stm := core.NewShortTermModule("Shout",
		core.BoundAction{Name: "shout", Fn: func(_ context.Context, args map[string]any) (any, error) {
			msg, _ := args["message"].(string)
			return strings.ToUpper(msg) + "!", nil
		}},
		core.BoundAction{Name: core.CallOperator, Fn: func(_ context.Context, args map[string]any) (any, error) {
			msg, _ := args["message"].(string)
			return strings.ToUpper(msg) + "!", nil
		}},
	)
	require.NoError(t, a.Memorize(stm))

	shout, err := a.Task("Shout")
	require.NoError(t, err)
	out, err := shout.Invoke(context.Background(), map[string]any{"message": "hey"})
	require.NoError(t, err)
	assert.Equal(t, "HEY!", out)

	chat, err := a.Task("Chat")
	require.NoError(t, err)
	out, err = chat.Invoke(context.Background(), map[string]any{"message": "hey"})
	require.NoError(t, err)
	assert.Equal(t, `Hi, I'm EchoBot. You said: "hey".`, out)
}

func TestAgentMemorize(t *testing.T) {
	add := core.BoundAction{Name: "add", Doc: "Add a and b.",
		Fn: func(_ context.Context, args map[string]any) (any, error) {
			aVal, _ := args["a"].(int)
			bVal, _ := args["b"].(int)
			return aVal + bVal, nil
		}}
	sub := core.BoundAction{Name: "sub",
		Fn: func(_ context.Context, args map[string]any) (any, error) {
			aVal, _ := args["a"].(int)
			bVal, _ := args["b"].(int)
			return aVal - bVal, nil
		}}

	t.Run("full api by default", func(t *testing.T) {
		a := newTestAgent(t)
		require.NoError(t, a.Memorize(core.NewShortTermModule("Calc", add, sub)))

		api, err := a.API("Calc")
		require.NoError(t, err)
		assert.Equal(t, []string{"add", "sub"}, api)
		assert.Equal(t, []string{"Calc"}, a.MemorizedTasks())
		assert.Empty(t, a.KnownTasks())

		out, err := a.Call(context.Background(), "Calc", "add", map[string]any{"a": 2, "b": 3})
		require.NoError(t, err)
		assert.Equal(t, 5, out)
	})

	t.Run("explicit action subset", func(t *testing.T) {
		a := newTestAgent(t)
		require.NoError(t, a.Memorize(core.NewShortTermModule("Calc", add, sub), "add"))

		api, err := a.API("Calc")
		require.NoError(t, err)
		assert.Equal(t, []string{"add"}, api)

		_, err = a.Call(context.Background(), "Calc", "sub", map[string]any{"a": 2, "b": 3})
		assert.Error(t, err)
	})

	t.Run("unknown explicit action leaves the agent unchanged", func(t *testing.T) {
		a := newTestAgent(t)
		err := a.Memorize(core.NewShortTermModule("Calc", add), "add", "mul")
		require.Error(t, err)
		assert.Empty(t, a.MemorizedTasks())
		_, ok := a.ShortTermModule("Calc")
		assert.False(t, ok)
	})

	t.Run("direct reference is retrievable", func(t *testing.T) {
		a := newTestAgent(t)
		stm := core.NewShortTermModule("Calc", add)
		require.NoError(t, a.Memorize(stm))

		got, ok := a.ShortTermModule("Calc")
		require.True(t, ok)
		assert.Same(t, stm, got)
	})

	t.Run("tasks lists learned then memorized", func(t *testing.T) {
		a := newTestAgent(t)
		require.NoError(t, a.Learn("Chat"))
		require.NoError(t, a.Memorize(core.NewShortTermModule("Calc", add)))
		assert.Equal(t, []string{"Chat", "Calc"}, a.Tasks())
	})
}

func TestAgentMemorizeFromContext(t *testing.T) {
	t.Run("empty working memory", func(t *testing.T) {
		a := newTestAgent(t)
		_, err := a.MemorizeFromContext(core.NewContext())
		assert.Error(t, err)
	})

	t.Run("hand-built context without a conversation", func(t *testing.T) {
		a := newTestAgent(t)
		c := &core.Context{ShortTermMemory: core.NewShortTermModule("Notes",
			core.BoundAction{Name: "recall", Fn: func(context.Context, map[string]any) (any, error) {
				return "remembered", nil
			}})}

		got, err := a.MemorizeFromContext(c)
		require.NoError(t, err)
		require.NotNil(t, got.Conversation)

		last, ok := got.Conversation.Last()
		require.True(t, ok)
		assert.Contains(t, last.Text, "Notes")
	})

	t.Run("memorizes and notes it in the conversation", func(t *testing.T) {
		a := newTestAgent(t)
		c := core.NewContext()
		c.ShortTermMemory = core.NewShortTermModule("Notes",
			core.BoundAction{Name: "recall", Fn: func(context.Context, map[string]any) (any, error) {
				return "remembered", nil
			}})

		got, err := a.MemorizeFromContext(c)
		require.NoError(t, err)
		assert.Same(t, c, got)
		assert.Equal(t, []string{"Notes"}, a.MemorizedTasks())

		last, ok := c.Conversation.Last()
		require.True(t, ok)
		assert.Equal(t, "assistant", last.Sender)
		assert.Contains(t, last.Text, "Notes")
	})
}

func TestAgentSubagents(t *testing.T) {
	t.Run("inherits parent flags at spawn", func(t *testing.T) {
		a := newTestAgent(t, func(o *Options) { o.EnableServices = true })

		child, err := a.SpawnSubagent("child")
		require.NoError(t, err)
		assert.True(t, child.ServicesEnabled())
		assert.False(t, child.ExecutorsEnabled())

		// Flags are copied, not live-linked.
		a.DisableServices()
		assert.True(t, child.ServicesEnabled())
	})

	t.Run("explicit flag overrides", func(t *testing.T) {
		a := newTestAgent(t, func(o *Options) { o.EnableServices = true })

		child, err := a.SpawnSubagent("restricted", WithServices(false), WithExecutors(true))
		require.NoError(t, err)
		assert.False(t, child.ServicesEnabled())
		assert.True(t, child.ExecutorsEnabled())
	})

	t.Run("shares hub and manager", func(t *testing.T) {
		a := newTestAgent(t)
		child, err := a.SpawnSubagent("child")
		require.NoError(t, err)

		assert.Same(t, a.Hub(), child.Hub())
		require.NoError(t, child.Learn("Chat"))

		// The parent sees the child's load but not its binding.
		assert.Equal(t, []string{echo.Name}, a.LoadedModules())
		_, err = a.Task("Chat")
		assert.Error(t, err)
	})

	t.Run("name collision", func(t *testing.T) {
		a := newTestAgent(t)
		_, err := a.SpawnSubagent("child")
		require.NoError(t, err)

		_, err = a.SpawnSubagent("child")
		var dupErr *core.DuplicateRegistrationError
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, "subagent", dupErr.Kind)
	})

	t.Run("remove frees the name", func(t *testing.T) {
		a := newTestAgent(t)
		_, err := a.SpawnSubagent("child")
		require.NoError(t, err)

		a.RemoveSubagent("child")
		a.RemoveSubagent("child") // absent name is a no-op

		_, ok := a.Subagent("child")
		assert.False(t, ok)
		_, err = a.SpawnSubagent("child")
		assert.NoError(t, err)
	})
}

func TestAgentPermissionGuards(t *testing.T) {
	a := newTestAgent(t)

	err := a.AssertServicesEnabled()
	var svcErr *core.ServicePermissionRequiredError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, fmt.Sprintf("agent %q", a.Name()), svcErr.Name)

	err = a.AssertExecutorsEnabled()
	var execErr *core.ExecutorPermissionRequiredError
	require.ErrorAs(t, err, &execErr)

	a.EnableServices()
	a.EnableExecutors()
	assert.NoError(t, a.AssertServicesEnabled())
	assert.NoError(t, a.AssertExecutorsEnabled())

	a.DisableExecutors()
	assert.Error(t, a.AssertExecutorsEnabled())
}

func TestAgentDoc(t *testing.T) {
	a := newTestAgent(t)

	doc, err := a.Doc("Chat", "")
	require.NoError(t, err)
	assert.NotEmpty(t, doc)

	_, err = a.Doc("Nope", "")
	var notFound *core.TaskNotFoundError
	assert.ErrorAs(t, err, &notFound)
}
