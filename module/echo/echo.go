// Package echo provides EchoBot, a dependency-free Chat module that replies
// with the message it received. It needs no permissions and supports
// streaming, which makes it the canonical module for tests and examples.
package echo

import (
	"context"
	"fmt"

	"github.com/DosakuNet/dosaku/core"
	"github.com/DosakuNet/dosaku/task"
)

// Name is the registered module name.
const Name = "EchoBot"

// Bot implements the Chat task without any backing service.
type Bot struct {
	stream bool
}

// New constructs the module. Config keys: stream (bool, default false).
func New(cfg core.Config) (core.Module, error) {
	return &Bot{stream: cfg.Bool("stream", false)}, nil
}

// Manifest declares EchoBot to a module manager.
func Manifest() core.Manifest {
	return core.Manifest{
		Name:    Name,
		Doc:     "Chatbot that echoes the received message back.",
		Tasks:   []string{task.Chat.Name},
		Actions: []string{"message", core.CallOperator},
		New:     New,
	}
}

// Name implements core.Module.
func (b *Bot) Name() string { return Name }

// Actions implements core.Module.
func (b *Bot) Actions() map[string]core.ActionFunc {
	return map[string]core.ActionFunc{
		"message":         b.message,
		core.CallOperator: b.message,
	}
}

func (b *Bot) message(_ context.Context, args map[string]any) (any, error) {
	msg, _ := args["message"].(string)
	reply := fmt.Sprintf("Hi, I'm EchoBot. You said: %q.", msg)
	if b.stream {
		return core.CumulativeStream(reply), nil
	}
	return reply, nil
}
