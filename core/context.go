package core

import (
	"sync"
	"time"

	"github.com/DosakuNet/dosaku/internal/util"
)

// Message is a single entry in a conversation log.
type Message struct {
	ID     string    `json:"id"`
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	At     time.Time `json:"at"`
}

// NewMessage builds a message with a generated ID and current timestamp.
func NewMessage(sender, text string) Message {
	return Message{ID: util.NewID(), Sender: sender, Text: text, At: time.Now()}
}

// Conversation is an ordered, append-only message log. Safe for concurrent
// use; Messages returns a defensive copy.
type Conversation struct {
	mu       sync.Mutex
	messages []Message
}

// NewConversation returns an empty conversation.
func NewConversation() *Conversation { return &Conversation{} }

// Add appends a message.
func (c *Conversation) Add(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

// Messages returns a copy of the log in append order.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Last returns the most recent message, if any.
func (c *Conversation) Last() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Context carries the working state an external collaborator (such as a chat
// session) hands to an agent: a conversation log and a working-memory slot
// that may hold a short-term module for the agent to memorize.
type Context struct {
	Conversation    *Conversation
	ShortTermMemory ShortTermModule
}

// NewContext returns a context with an empty conversation and no working
// memory.
func NewContext() *Context {
	return &Context{Conversation: NewConversation()}
}
