package viewmodel

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/couchcryptid/floodaura-sync/internal/domain"
	"github.com/couchcryptid/floodaura-sync/internal/observability"
)

// Fixed assistant lines.
const (
	WelcomeMessage   = "Hello! I'm your FloodAura assistant. How can I help you today?"
	ChatErrorMessage = "Sorry, I encountered an error. Please try again."
)

var (
	// ErrEmptyMessage is returned by Send for blank input.
	ErrEmptyMessage = errors.New("chat message is empty")

	// ErrSendPending is returned by Send while a reply is still awaited.
	ErrSendPending = errors.New("previous chat message still pending")
)

// ChatSnapshot is an immutable copy of the chat transcript.
type ChatSnapshot struct {
	Messages []domain.ChatMessage `json:"messages"`
	Pending  bool                 `json:"pending"`
}

// ChatSession is the assistant chat widget: a transcript and at most one
// message awaiting a reply.
type ChatSession struct {
	assistant Assistant
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu       sync.Mutex
	messages []domain.ChatMessage
	opened   bool
	pending  bool
}

// NewChatSession creates an empty chat session.
func NewChatSession(assistant Assistant, logger *slog.Logger, metrics *observability.Metrics) *ChatSession {
	return &ChatSession{assistant: assistant, logger: logger, metrics: metrics}
}

// Open shows the widget, greeting the user the first time.
func (c *ChatSession) Open() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opened {
		return
	}
	c.opened = true
	c.messages = append(c.messages, domain.NewChatMessage(WelcomeMessage, domain.SenderBot))
}

// Send appends the user's message, asks the assistant and appends its reply,
// or the fixed error line when the assistant cannot be reached.
func (c *ChatSession) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return ErrSendPending
	}
	if !c.opened {
		c.opened = true
		c.messages = append(c.messages, domain.NewChatMessage(WelcomeMessage, domain.SenderBot))
	}
	c.pending = true
	c.messages = append(c.messages, domain.NewChatMessage(text, domain.SenderUser))
	c.mu.Unlock()

	reply, err := c.assistant.Chat(ctx, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
	if err != nil {
		c.metrics.ChatMessages.WithLabelValues("failed").Inc()
		c.logger.Warn("assistant chat failed", "error", err)
		c.messages = append(c.messages, domain.NewChatMessage(ChatErrorMessage, domain.SenderBot))
		return nil
	}
	c.metrics.ChatMessages.WithLabelValues("success").Inc()
	c.messages = append(c.messages, domain.NewChatMessage(reply, domain.SenderBot))
	return nil
}

// Snapshot returns a copy of the transcript.
func (c *ChatSession) Snapshot() ChatSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := make([]domain.ChatMessage, len(c.messages))
	copy(msgs, c.messages)
	return ChatSnapshot{Messages: msgs, Pending: c.pending}
}
