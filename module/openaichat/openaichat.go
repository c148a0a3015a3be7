// Package openaichat provides OpenAIChat, a Chat module backed by the OpenAI
// Chat Completions API. It keeps a per-instance conversation history and
// supports both completed and streaming replies; streamed elements are the
// cumulative reply so far, not deltas. Loading it requires the services
// permission.
package openaichat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/DosakuNet/dosaku/core"
	"github.com/DosakuNet/dosaku/task"
)

// Name is the registered module name.
const Name = "OpenAIChat"

// Chat wraps the OpenAI Chat Completions API behind the Chat task.
type Chat struct {
	client      openai.Client
	model       string
	stream      bool
	temperature float64
	maxTokens   int64

	mu      sync.Mutex
	history []openai.ChatCompletionMessageParamUnion
}

// New constructs the module. Config keys: api_key (string, defaults to the
// environment), model (string, default gpt-4o-mini), stream (bool),
// temperature (float, default 0.7), max_tokens (int, default 4096),
// system (string, optional system prompt).
func New(cfg core.Config) (core.Module, error) {
	var clientOpts []option.RequestOption
	if key := cfg.String("api_key", ""); key != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(key))
	}

	c := &Chat{
		client:      openai.NewClient(clientOpts...),
		model:       cfg.String("model", openai.ChatModelGPT4oMini),
		stream:      cfg.Bool("stream", false),
		temperature: cfg.Float("temperature", 0.7),
		maxTokens:   int64(cfg.Int("max_tokens", 4096)),
	}
	if system := cfg.String("system", ""); system != "" {
		c.history = append(c.history, openai.SystemMessage(system))
	}
	return c, nil
}

// Manifest declares OpenAIChat to a module manager.
func Manifest() core.Manifest {
	return core.Manifest{
		Name:             Name,
		Doc:              "Chatbot backed by the OpenAI Chat Completions API.",
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
	c.history = append(c.history, openai.UserMessage(msg))
	params := openai.ChatCompletionNewParams{
		Messages:            append([]openai.ChatCompletionMessageParamUnion{}, c.history...),
		Model:               c.model,
		Temperature:         openai.Float(c.temperature),
		MaxCompletionTokens: openai.Int(c.maxTokens),
	}
	c.mu.Unlock()

	if c.stream {
		return c.streamReply(ctx, params), nil
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}
	reply := resp.Choices[0].Message.Content
	c.record(reply)
	return reply, nil
}

// streamReply adapts the SDK's delta stream into a cumulative partial stream.
// A mid-stream failure is surfaced as the stream's terminal error; the
// producer stores it before closing the channel, so the close makes it
// visible to the consumer.
func (c *Chat) streamReply(ctx context.Context, params openai.ChatCompletionNewParams) *core.Stream {
	ch := make(chan string)
	var streamErr error
	go func() {
		defer close(ch)
		stream := c.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()
		var builder strings.Builder
		for stream.Next() {
			chunk := stream.Current()
			for _, choice := range chunk.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				builder.WriteString(choice.Delta.Content)
				select {
				case ch <- builder.String():
				case <-ctx.Done():
					streamErr = ctx.Err()
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			streamErr = fmt.Errorf("openai streaming error: %w", err)
			return
		}
		c.record(builder.String())
	}()
	return core.StreamFromChannelWithError(ch, func() error { return streamErr })
}

func (c *Chat) record(reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, openai.AssistantMessage(reply))
}
