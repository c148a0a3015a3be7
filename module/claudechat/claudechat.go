// Package claudechat provides ClaudeChat, a Chat module backed by the
// Anthropic Messages API. Replies are non-streaming; loading it with
// stream=true fails up front. Loading requires the services permission.
package claudechat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/DosakuNet/dosaku/core"
	"github.com/DosakuNet/dosaku/task"
)

// Name is the registered module name.
const Name = "ClaudeChat"

// Chat wraps the Anthropic Messages API behind the Chat task.
type Chat struct {
	client      anthropic.Client
	model       anthropic.Model
	system      string
	temperature float64
	maxTokens   int64

	mu      sync.Mutex
	history []anthropic.MessageParam
}

// New constructs the module. Config keys: api_key (string, defaults to the
// environment), model (string, default claude-3-5-sonnet), temperature
// (float, default 0.7), max_tokens (int, default 4096), system (string,
// optional). stream=true is rejected: the Messages adapter is
// request/response only.
func New(cfg core.Config) (core.Module, error) {
	if cfg.Bool("stream", false) {
		return nil, fmt.Errorf("%s does not support streaming", Name)
	}

	var clientOpts []option.RequestOption
	if key := cfg.String("api_key", ""); key != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(key))
	}

	return &Chat{
		client:      anthropic.NewClient(clientOpts...),
		model:       anthropic.Model(cfg.String("model", string(anthropic.ModelClaude3_5Sonnet20241022))),
		system:      cfg.String("system", ""),
		temperature: cfg.Float("temperature", 0.7),
		maxTokens:   int64(cfg.Int("max_tokens", 4096)),
	}, nil
}

// Manifest declares ClaudeChat to a module manager.
func Manifest() core.Manifest {
	return core.Manifest{
		Name:             Name,
		Doc:              "Chatbot backed by the Anthropic Messages API.",
		Tasks:            []string{task.Chat.Name},
		Actions:          []string{"message", core.CallOperator},
		RequiresServices: true,
		New:              New,
	}
}

// Name implements core.Module.
func (c *Chat) Name() string { return Name }

// Actions implements core.Module.
func (c *Chat) Actions() map[string]core.ActionFunc {
	return map[string]core.ActionFunc{
		"message":         c.message,
		core.CallOperator: c.message,
	}
}

func (c *Chat) message(ctx context.Context, args map[string]any) (any, error) {
	msg, _ := args["message"].(string)
	if msg == "" {
		return nil, fmt.Errorf("message requires a non-empty message argument")
	}

	c.mu.Lock()
	c.history = append(c.history, anthropic.NewUserMessage(anthropic.NewTextBlock(msg)))
	params := anthropic.MessageNewParams{
		Model:       c.model,
		Messages:    append([]anthropic.MessageParam{}, c.history...),
		MaxTokens:   c.maxTokens,
		Temperature: anthropic.Float(c.temperature),
	}
	c.mu.Unlock()

	if c.system != "" {
		params.System = []anthropic.TextBlockParam{{Text: c.system}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var builder strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}
	reply := builder.String()

	c.mu.Lock()
	c.history = append(c.history, resp.ToParam())
	c.mu.Unlock()

	return reply, nil
}
