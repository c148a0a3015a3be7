// Package discord runs a Discord front end on top of an agent: direct
// messages hold a free-form conversation through the agent's Chat binding,
// and prefix commands expose task listing, learning and image generation in
// any channel.
package discord

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/DosakuNet/dosaku/agent"
	"github.com/DosakuNet/dosaku/core"
	"github.com/DosakuNet/dosaku/logging"
)

// Discord caps messages at 2000 characters; longer replies are chunked.
const maxMessageLen = 2000

// Options configures the bot.
type Options struct {
	// CommandPrefixes mark channel messages as commands. Default ">".
	CommandPrefixes []string
	Logger          logging.Logger
}

// Bot bridges a Discord session and an agent.
type Bot struct {
	session  *discordgo.Session
	agent    *agent.Agent
	prefixes []string
	logger   logging.Logger
}

// New constructs a bot from a bot token and an agent. The agent should
// already have learned the Chat task; commands that need other tasks learn
// them on demand.
func New(token string, a *agent.Agent, optFns ...func(o *Options)) (*Bot, error) {
	opts := Options{
		CommandPrefixes: []string{">"},
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	b := &Bot{session: session, agent: a, prefixes: opts.CommandPrefixes, logger: opts.Logger}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessage)
	return b, nil
}

// Run opens the gateway connection and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	defer b.session.Close()
	<-ctx.Done()
	return ctx.Err()
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("discord.ready", "user", r.User.Username, "id", r.User.ID)
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}

	b.logger.Debug("discord.message", "author", m.Author.Username)

	for _, prefix := range b.prefixes {
		if strings.HasPrefix(m.Content, prefix) {
			b.handleCommand(s, m, strings.TrimPrefix(m.Content, prefix))
			return
		}
	}

	// A message without a command prefix is free chat, DMs only.
	if m.GuildID == "" {
		b.handleChat(s, m)
	}
}

func (b *Bot) handleChat(s *discordgo.Session, m *discordgo.MessageCreate) {
	result, err := b.agent.Call(context.Background(), "Chat", "message",
		map[string]any{"message": m.Content})
	if err != nil {
		b.logger.Error("discord.chat_failed", "error", err.Error())
		b.reply(s, m.ChannelID, "Sorry, I can't chat right now: "+err.Error())
		return
	}
	text, err := core.AsText(result)
	if err != nil {
		b.logger.Error("discord.chat_failed", "error", err.Error())
		return
	}
	b.reply(s, m.ChannelID, text)
}

func (b *Bot) handleCommand(s *discordgo.Session, m *discordgo.MessageCreate, line string) {
	name, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case "tasks":
		b.reply(s, m.ChannelID, fmt.Sprintf(
			"Learnable tasks: %s\nKnown tasks: %s",
			strings.Join(b.agent.LearnableTasks(), ", "),
			strings.Join(b.agent.KnownTasks(), ", ")))

	case "learn":
		if rest == "" {
			b.reply(s, m.ChannelID, "Usage: learn <task> [module]")
			return
		}
		taskName, moduleName, _ := strings.Cut(rest, " ")
		var optFns []func(o *agent.LearnOptions)
		if moduleName != "" {
			optFns = append(optFns, agent.WithModule(strings.TrimSpace(moduleName)))
		}
		if err := b.agent.Learn(taskName, optFns...); err != nil {
			b.reply(s, m.ChannelID, "Could not learn "+taskName+": "+err.Error())
			return
		}
		b.reply(s, m.ChannelID, "Learned "+taskName+".")

	case "text_to_image":
		if rest == "" {
			b.reply(s, m.ChannelID, "Usage: text_to_image <prompt>")
			return
		}
		b.handleTextToImage(s, m, rest)

	default:
		b.reply(s, m.ChannelID, "I know the commands: tasks, learn, text_to_image. "+
			"DM me to chat freely.")
	}
}

func (b *Bot) handleTextToImage(s *discordgo.Session, m *discordgo.MessageCreate, prompt string) {
	result, err := b.agent.Call(context.Background(), "TextToImage", "text_to_image",
		map[string]any{"prompt": prompt})
	if err != nil {
		b.reply(s, m.ChannelID, "Image generation failed: "+err.Error())
		return
	}
	png, ok := result.([]byte)
	if !ok {
		b.reply(s, m.ChannelID, "Image generation returned an unexpected result.")
		return
	}
	_, err = s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Content: "Sure, how about this?",
		Files: []*discordgo.File{{
			Name:        "image.png",
			ContentType: "image/png",
			Reader:      bytes.NewReader(png),
		}},
	})
	if err != nil {
		b.logger.Error("discord.send_image_failed", "error", err.Error())
	}
}

// reply sends text to the channel, chunked to Discord's message limit.
func (b *Bot) reply(s *discordgo.Session, channelID, text string) {
	for _, chunk := range chunkMessage(text) {
		if _, err := s.ChannelMessageSend(channelID, chunk); err != nil {
			b.logger.Error("discord.send_failed", "error", err.Error())
			return
		}
	}
}

// chunkMessage splits text into pieces of at most maxMessageLen characters.
// The limit counts characters, not bytes, and splits never land inside a rune.
func chunkMessage(text string) []string {
	runes := []rune(text)
	var chunks []string
	for len(runes) > 0 {
		n := min(len(runes), maxMessageLen)
		chunks = append(chunks, string(runes[:n]))
		runes = runes[n:]
	}
	return chunks
}
