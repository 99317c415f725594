package domain

import (
	"time"

	"github.com/google/uuid"
)

// Chat participants.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// ChatMessage is one line of the assistant chat transcript.
type ChatMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChatMessage stamps a message with a fresh ID and the current time.
func NewChatMessage(text, sender string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		Timestamp: clock.Now(),
	}
}
