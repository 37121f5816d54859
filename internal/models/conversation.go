package models

import "time"

// Conversation represents a titled thread of messages between the user and the
// assistant. It carries the list metadata (preview, pin state, timestamps) used
// by the history surface, and the model tag that was current when the
// conversation was created.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Preview   string    `json:"preview"`
	IsPinned  bool      `json:"isPinned"`
	Model     string    `json:"model"`

	// TitleDerived records that the title has already been derived, either
	// from an initial prompt or from the first user message. Once set, the
	// title only changes through an explicit rename, even if the message it
	// came from is deleted.
	TitleDerived bool `json:"titleDerived,omitempty"`
}

// Message represents an individual turn within a conversation. While an
// assistant message is being streamed, the accumulated text lives in
// StreamingContent and Content stays empty; finalization moves the buffer into
// Content and clears it.
type Message struct {
	ID               string    `json:"id"`
	Role             Role      `json:"role"`
	Content          string    `json:"content"`
	StreamingContent string    `json:"streamingContent,omitempty"`
	IsStreaming      bool      `json:"isStreaming,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	Reaction         Reaction  `json:"reaction,omitempty"`
	IsEdited         bool      `json:"isEdited,omitempty"`
}

// Role represents the author of a message.
type Role string

// Reaction is the user's thumbs verdict on a message. The zero value means no
// reaction.
type Reaction string

const (
	// RoleUser represents a user message.
	RoleUser Role = "user"
	// RoleAssistant represents an assistant message.
	RoleAssistant Role = "assistant"

	// ReactionUp marks a message as helpful.
	ReactionUp Reaction = "up"
	// ReactionDown marks a message as unhelpful.
	ReactionDown Reaction = "down"
	// ReactionNone clears any previous reaction.
	ReactionNone Reaction = ""
)

// Clone returns a deep copy of the conversation, so callers can hand out
// snapshots without sharing the message slice with the store.
func (c Conversation) Clone() Conversation {
	out := c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return out
}
