package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fitstack/coach-web-ui/internal/models"
	"github.com/google/uuid"
)

// ErrStreamInFlight is returned by StartStreamingResponse while another
// assistant message is still streaming. Streaming is serialized across the
// whole store, not per conversation, so a second generation must wait for the
// first one to finalize.
var ErrStreamInFlight = errors.New("a streaming response is already in flight")

// ErrConversationNotFound is returned by StartStreamingResponse when the
// target conversation does not exist.
var ErrConversationNotFound = errors.New("conversation not found")

// Snapshotter persists and restores the full conversation collection. The
// store treats it as best-effort: a failing save is logged and the in-memory
// state stays authoritative.
type Snapshotter interface {
	Save(ctx context.Context, conversations []models.Conversation) error
	Load(ctx context.Context) ([]models.Conversation, error)
}

// Store is the authoritative in-memory container for all conversations and
// the currently active one. Every mutation goes through its methods; other
// components only ever read snapshots. Mutations targeting ids that no longer
// exist are silent no-ops, so a caller holding a stale id after a deletion
// observes no state change instead of an error.
type Store struct {
	mu sync.RWMutex

	conversations []*models.Conversation
	activeID      string
	model         string

	gen *generation

	snapshotter Snapshotter
	logger      *slog.Logger

	// saveMu serializes snapshot saves. saveSeq is assigned under mu when a
	// snapshot is captured; savedSeq, guarded by saveMu, tracks the newest
	// sequence already written so a slow save cannot overwrite a newer one.
	saveMu   sync.Mutex
	saveSeq  uint64
	savedSeq uint64
}

// generation tags the single in-flight streaming message. A nil generation
// means the store is idle.
type generation struct {
	conversationID string
	messageID      string
}

// StoreOption configures a Store on creation.
type StoreOption func(*Store)

// WithModel sets the process-wide default model tag assigned to new
// conversations.
func WithModel(model string) StoreOption {
	return func(s *Store) {
		s.model = model
	}
}

// WithSnapshotter makes the store persist the conversation collection after
// each mutation, and enables Restore.
func WithSnapshotter(snapshotter Snapshotter) StoreOption {
	return func(s *Store) {
		s.snapshotter = snapshotter
	}
}

// NewStore creates an empty Store.
func NewStore(logger *slog.Logger, options ...StoreOption) *Store {
	s := &Store{
		model:  "coach-pro",
		logger: logger.With(slog.String("module", "chat")),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Restore replaces the collection with the snapshotter's saved state. Any
// message that was mid-stream when the snapshot was taken is finalized with
// whatever it had accumulated, so no message stays streaming forever across a
// restart.
func (s *Store) Restore(ctx context.Context) error {
	if s.snapshotter == nil {
		return nil
	}

	conversations, err := s.snapshotter.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations = make([]*models.Conversation, len(conversations))
	for i := range conversations {
		c := conversations[i].Clone()
		for j := range c.Messages {
			if c.Messages[j].IsStreaming {
				c.Messages[j].Content = c.Messages[j].StreamingContent
				c.Messages[j].StreamingContent = ""
				c.Messages[j].IsStreaming = false
			}
		}
		s.conversations[i] = &c
	}
	return nil
}

// CreateConversation creates an empty conversation at the front of the
// collection and makes it the active one. The title and preview are derived
// from initialPrompt when given. Returns the new conversation's id.
func (s *Store) CreateConversation(initialPrompt string) string {
	now := time.Now()
	conversation := &models.Conversation{
		ID:        uuid.New().String(),
		Title:     "New Chat",
		CreatedAt: now,
		UpdatedAt: now,
		Preview:   "New conversation",
	}

	if strings.TrimSpace(initialPrompt) != "" {
		conversation.Title = deriveTitle(initialPrompt)
		conversation.Preview = derivePreview(initialPrompt)
		conversation.TitleDerived = true
	}

	s.mu.Lock()
	conversation.Model = s.model
	s.conversations = append([]*models.Conversation{conversation}, s.conversations...)
	s.activeID = conversation.ID
	snapshot, seq := s.snapshotForSaveLocked()
	s.mu.Unlock()

	s.persist(snapshot, seq)
	return conversation.ID
}

// SetActiveConversation selects which conversation is current for UI
// purposes. The id is not validated; selecting an unknown id simply means no
// conversation resolves as active.
func (s *Store) SetActiveConversation(id string) {
	s.mu.Lock()
	s.activeID = id
	s.mu.Unlock()
}

// ActiveConversation returns a snapshot of the active conversation, if any.
func (s *Store) ActiveConversation() (models.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.findLocked(s.activeID)
	if c == nil {
		return models.Conversation{}, false
	}
	return c.Clone(), true
}

// AddUserMessage appends a user message with the given text, refreshing the
// conversation's updatedAt and preview. The conversation's title is derived
// from the content only if no title has been derived yet; it is never
// regenerated afterwards, even if the message it came from is later edited or
// deleted.
//
// The constructed message is returned even when the conversation does not
// exist, in which case nothing was stored.
func (s *Store) AddUserMessage(conversationID, content string) models.Message {
	message := models.Message{
		ID:        uuid.New().String(),
		Role:      models.RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}

	s.mu.Lock()
	c := s.findLocked(conversationID)
	if c == nil {
		s.mu.Unlock()
		s.logger.Debug("Dropping user message for unknown conversation",
			slog.String("conversationID", conversationID))
		return message
	}

	if !c.TitleDerived {
		c.Title = deriveTitle(content)
		c.TitleDerived = true
	}
	c.Messages = append(c.Messages, message)
	c.Preview = derivePreview(content)
	c.UpdatedAt = message.Timestamp
	snapshot, seq := s.snapshotForSaveLocked()
	s.mu.Unlock()

	s.persist(snapshot, seq)
	return message
}

// SendUserMessage appends a user message and opens the streaming assistant
// reply as a single atomic step. While another response is already streaming
// it returns ErrStreamInFlight without storing anything, so a rejected send
// never leaves a user message with no reply behind it. On success it returns
// the stored user message and the id of the streaming assistant message.
func (s *Store) SendUserMessage(conversationID, content string) (models.Message, string, error) {
	s.mu.Lock()
	if s.gen != nil {
		s.mu.Unlock()
		return models.Message{}, "", ErrStreamInFlight
	}

	c := s.findLocked(conversationID)
	if c == nil {
		s.mu.Unlock()
		return models.Message{}, "", ErrConversationNotFound
	}

	userMessage := models.Message{
		ID:        uuid.New().String(),
		Role:      models.RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
	assistant := models.Message{
		ID:          uuid.New().String(),
		Role:        models.RoleAssistant,
		IsStreaming: true,
		Timestamp:   time.Now(),
	}

	if !c.TitleDerived {
		c.Title = deriveTitle(content)
		c.TitleDerived = true
	}
	c.Messages = append(c.Messages, userMessage, assistant)
	c.Preview = derivePreview(content)
	c.UpdatedAt = assistant.Timestamp
	s.gen = &generation{
		conversationID: conversationID,
		messageID:      assistant.ID,
	}

	snapshot, seq := s.snapshotForSaveLocked()
	s.mu.Unlock()

	s.persist(snapshot, seq)
	return userMessage, assistant.ID, nil
}

// StartStreamingResponse appends a new empty assistant message in the
// streaming state and records it as the single in-flight generation. It
// returns ErrStreamInFlight while any conversation is already streaming, and
// ErrConversationNotFound for an unknown conversation id. On success it
// returns the new message's id.
func (s *Store) StartStreamingResponse(conversationID string) (string, error) {
	s.mu.Lock()
	if s.gen != nil {
		s.mu.Unlock()
		return "", ErrStreamInFlight
	}

	c := s.findLocked(conversationID)
	if c == nil {
		s.mu.Unlock()
		return "", ErrConversationNotFound
	}

	message := models.Message{
		ID:          uuid.New().String(),
		Role:        models.RoleAssistant,
		IsStreaming: true,
		Timestamp:   time.Now(),
	}
	c.Messages = append(c.Messages, message)
	c.UpdatedAt = message.Timestamp
	s.gen = &generation{
		conversationID: conversationID,
		messageID:      message.ID,
	}
	snapshot, seq := s.snapshotForSaveLocked()
	s.mu.Unlock()

	s.persist(snapshot, seq)
	return message.ID, nil
}

// AppendStreamingToken concatenates token onto the streaming buffer of the
// given message. Only the buffer is touched; the message's content stays
// empty until finalization. Tokens for a message that does not exist or is no
// longer streaming are dropped.
func (s *Store) AppendStreamingToken(conversationID, messageID, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.findMessageLocked(conversationID, messageID)
	if m == nil || !m.IsStreaming {
		return
	}
	m.StreamingContent += token
}

// CompleteStreaming finalizes a streaming message: the accumulated buffer
// becomes the message content, the buffer is cleared, and the store returns
// to the idle generation state.
func (s *Store) CompleteStreaming(conversationID, messageID string) {
	s.finalizeStreaming(conversationID, messageID)
}

// CancelStreaming ends a stream early, committing whatever has accumulated so
// far. It is the cleanup path for generator failures and user navigation, so
// a message never stays streaming forever.
func (s *Store) CancelStreaming(conversationID, messageID string) {
	s.finalizeStreaming(conversationID, messageID)
}

func (s *Store) finalizeStreaming(conversationID, messageID string) {
	s.mu.Lock()
	c := s.findLocked(conversationID)
	if c == nil {
		s.mu.Unlock()
		return
	}

	m := findMessage(c, messageID)
	if m == nil || !m.IsStreaming {
		s.mu.Unlock()
		return
	}

	m.Content = m.StreamingContent
	m.StreamingContent = ""
	m.IsStreaming = false
	if m.Content != "" {
		c.Preview = derivePreview(m.Content)
	}
	c.UpdatedAt = time.Now()

	if s.gen != nil && s.gen.messageID == messageID {
		s.gen = nil
	}
	snapshot, seq := s.snapshotForSaveLocked()
	s.mu.Unlock()

	s.persist(snapshot, seq)
}

// Streaming reports the conversation and message ids of the in-flight
// generation, if any.
func (s *Store) Streaming() (conversationID, messageID string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.gen == nil {
		return "", "", false
	}
	return s.gen.conversationID, s.gen.messageID, true
}

// GetConversation returns a snapshot of the conversation with the given id.
func (s *Store) GetConversation(id string) (models.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.findLocked(id)
	if c == nil {
		return models.Conversation{}, false
	}
	return c.Clone(), true
}

// Conversations returns a snapshot of the whole collection in insertion
// order, newest first.
func (s *Store) Conversations() []models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// DeleteConversation removes the conversation with the given id. If it was
// the active conversation, the active selection is cleared.
func (s *Store) DeleteConversation(id string) {
	s.mu.Lock()
	idx := -1
	for i, c := range s.conversations {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return
	}

	s.conversations = append(s.conversations[:idx], s.conversations[idx+1:]...)
	if s.activeID == id {
		s.activeID = ""
	}
	if s.gen != nil && s.gen.conversationID == id {
		s.gen = nil
	}
	snapshot, seq := s.snapshotForSaveLocked()
	s.mu.Unlock()

	s.persist(snapshot, seq)
}

// ClearAll empties the entire collection and clears the active selection.
func (s *Store) ClearAll() {
	s.mu.Lock()
	s.conversations = nil
	s.activeID = ""
	s.gen = nil
	snapshot, seq := s.snapshotForSaveLocked()
	s.mu.Unlock()

	s.persist(snapshot, seq)
}

// RenameConversation sets the conversation's title to the trimmed input. An
// empty or whitespace-only title leaves the existing one unchanged.
func (s *Store) RenameConversation(id, title string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return
	}

	s.mu.Lock()
	c := s.findLocked(id)
	if c == nil {
		s.mu.Unlock()
		return
	}
	c.Title = title
	snapshot, seq := s.snapshotForSaveLocked()
	s.mu.Unlock()

	s.persist(snapshot, seq)
}

// PinConversation sets the conversation's pin flag.
func (s *Store) PinConversation(id string, pinned bool) {
	s.mu.Lock()
	c := s.findLocked(id)
	if c == nil {
		s.mu.Unlock()
		return
	}
	c.IsPinned = pinned
	snapshot, seq := s.snapshotForSaveLocked()
	s.mu.Unlock()

	s.persist(snapshot, seq)
}

// ReactToMessage sets the message's reaction. Applying the reaction the
// message already has clears it instead, so reacting twice with the same
// thumb toggles back to no reaction.
func (s *Store) ReactToMessage(conversationID, messageID string, reaction models.Reaction) {
	s.mu.Lock()
	m := s.findMessageLocked(conversationID, messageID)
	if m == nil {
		s.mu.Unlock()
		return
	}

	if m.Reaction == reaction {
		m.Reaction = models.ReactionNone
	} else {
		m.Reaction = reaction
	}
	snapshot, seq := s.snapshotForSaveLocked()
	s.mu.Unlock()

	s.persist(snapshot, seq)
}

// DeleteMessage removes the message from its conversation's sequence. The
// surviving messages keep their order.
func (s *Store) DeleteMessage(conversationID, messageID string) {
	s.mu.Lock()
	c := s.findLocked(conversationID)
	if c == nil {
		s.mu.Unlock()
		return
	}

	idx := -1
	for i := range c.Messages {
		if c.Messages[i].ID == messageID {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return
	}

	if c.Messages[idx].IsStreaming && s.gen != nil && s.gen.messageID == messageID {
		s.gen = nil
	}
	c.Messages = append(c.Messages[:idx], c.Messages[idx+1:]...)
	c.UpdatedAt = time.Now()
	snapshot, seq := s.snapshotForSaveLocked()
	s.mu.Unlock()

	s.persist(snapshot, seq)
}

// EditMessage replaces the message's content and marks it edited. The
// message's original timestamp is preserved; the conversation's updatedAt and
// preview are refreshed.
func (s *Store) EditMessage(conversationID, messageID, newContent string) {
	s.mu.Lock()
	c := s.findLocked(conversationID)
	if c == nil {
		s.mu.Unlock()
		return
	}

	m := findMessage(c, messageID)
	if m == nil {
		s.mu.Unlock()
		return
	}

	m.Content = newContent
	m.IsEdited = true
	c.Preview = derivePreview(newContent)
	c.UpdatedAt = time.Now()
	snapshot, seq := s.snapshotForSaveLocked()
	s.mu.Unlock()

	s.persist(snapshot, seq)
}

// SetModel changes the default model tag used by future CreateConversation
// calls. Existing conversations keep the tag they were created with.
func (s *Store) SetModel(model string) {
	if strings.TrimSpace(model) == "" {
		return
	}

	s.mu.Lock()
	s.model = model
	s.mu.Unlock()
}

// Model returns the current default model tag.
func (s *Store) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

func (s *Store) findLocked(id string) *models.Conversation {
	for _, c := range s.conversations {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *Store) findMessageLocked(conversationID, messageID string) *models.Message {
	c := s.findLocked(conversationID)
	if c == nil {
		return nil
	}
	return findMessage(c, messageID)
}

func findMessage(c *models.Conversation, messageID string) *models.Message {
	for i := range c.Messages {
		if c.Messages[i].ID == messageID {
			return &c.Messages[i]
		}
	}
	return nil
}

func (s *Store) snapshotLocked() []models.Conversation {
	out := make([]models.Conversation, len(s.conversations))
	for i, c := range s.conversations {
		out[i] = c.Clone()
	}
	return out
}

// snapshotForSaveLocked captures the collection and assigns it a sequence
// number while the caller still holds the write lock, so every snapshot
// carries the order its mutation happened in. Returns a nil snapshot when
// there is no snapshotter.
func (s *Store) snapshotForSaveLocked() ([]models.Conversation, uint64) {
	if s.snapshotter == nil {
		return nil, 0
	}
	s.saveSeq++
	return s.snapshotLocked(), s.saveSeq
}

// persist saves a snapshot captured by snapshotForSaveLocked. Saves are
// serialized, and a snapshot older than the newest one already written is
// dropped, so a slow save from one mutation cannot roll back a later one.
// Streaming token appends deliberately skip persistence; the collection is
// saved when a stream opens and again when it finalizes.
func (s *Store) persist(snapshot []models.Conversation, seq uint64) {
	if snapshot == nil {
		return
	}

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if seq <= s.savedSeq {
		return
	}
	s.savedSeq = seq

	if err := s.snapshotter.Save(context.Background(), snapshot); err != nil {
		s.logger.Error("Failed to save conversations snapshot",
			slog.String(errLoggerKey, err.Error()))
	}
}

const errLoggerKey = "err"
