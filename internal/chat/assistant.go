// Package chat answers visitor questions about the Nobel Prize, through a
// remote completion service when configured and a keyword table otherwise.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/terra-clan/wings-of-wisdom/internal/models"
)

// SystemPrompt scopes the remote assistant to the site's topic
const SystemPrompt = "You are a Nobel Prize expert. Only answer questions about Nobel Prize, winners, categories, and achievements. Keep responses under 100 words."

const (
	SourceAssistant = "assistant"
	SourceFallback  = "fallback"

	maxMessageRunes = 1000
	maxIDLength     = 64
	// messages of context sent with each completion
	historyWindow = 6

	// DefaultHistoryLimit is the number of messages kept per conversation
	DefaultHistoryLimit = 50
)

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = errors.New("message is too long")
	ErrInvalidConvID  = errors.New("invalid conversation id")
)

// Assistant keeps chat widget state and produces replies
type Assistant struct {
	completer Completer
	responder *Responder
	store     ConversationStore
	ttl       time.Duration
	limit     int
	now       func() time.Time

	mu sync.Mutex
}

// AssistantOption configures an Assistant
type AssistantOption func(*Assistant)

// WithHistoryLimit caps the stored messages of each conversation; older
// messages are dropped first. Values below 2 are ignored.
func WithHistoryLimit(n int) AssistantOption {
	return func(a *Assistant) {
		if n >= 2 {
			a.limit = n
		}
	}
}

// NewAssistant creates an assistant. completer may be nil, in which case
// every reply comes from the keyword responder.
func NewAssistant(completer Completer, store ConversationStore, ttl time.Duration, opts ...AssistantOption) *Assistant {
	a := &Assistant{
		completer: completer,
		responder: NewResponder(),
		store:     store,
		ttl:       ttl,
		limit:     DefaultHistoryLimit,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Reply appends message to the conversation and answers it.
// An empty conversationID starts a new conversation.
func (a *Assistant) Reply(ctx context.Context, conversationID, message string) (models.ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return models.ChatReply{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > maxMessageRunes {
		return models.ChatReply{}, ErrMessageTooLong
	}

	w, err := a.loadOrCreate(ctx, conversationID)
	if err != nil {
		return models.ChatReply{}, err
	}

	question := models.ChatMessage{
		Role:    models.RoleUser,
		Content: message,
		SentAt:  a.now(),
	}
	text, source := a.answer(ctx, w, question)
	reply := models.ChatMessage{
		Role:    models.RoleAssistant,
		Content: text,
		SentAt:  a.now(),
	}

	// reload so messages stored while the completion ran are kept
	a.mu.Lock()
	defer a.mu.Unlock()

	latest, err := a.loadOrCreateLocked(ctx, w.ID)
	if err != nil {
		return models.ChatReply{}, err
	}
	latest.Messages = trimHistory(append(latest.Messages, question, reply), a.limit)
	if err := a.saveLocked(ctx, latest); err != nil {
		return models.ChatReply{}, err
	}

	return models.ChatReply{
		ConversationID: latest.ID,
		Text:           text,
		Source:         source,
	}, nil
}

func (a *Assistant) answer(ctx context.Context, w *models.ChatWidget, question models.ChatMessage) (string, string) {
	last := question.Content
	if a.completer == nil {
		return a.responder.Respond(last), SourceFallback
	}

	history := append(append([]models.ChatMessage(nil), w.Messages...), question)
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	prompt := make([]models.ChatMessage, 0, len(history)+1)
	prompt = append(prompt, models.ChatMessage{Role: models.RoleSystem, Content: SystemPrompt})
	prompt = append(prompt, history...)

	text, err := a.completer.Complete(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		slog.Warn("chat completion failed, using fallback",
			"conversation_id", w.ID,
			"error", err,
		)
		return a.responder.Respond(last), SourceFallback
	}
	return strings.TrimSpace(text), SourceAssistant
}

// Widget returns the stored state of a conversation
func (a *Assistant) Widget(ctx context.Context, id string) (*models.ChatWidget, error) {
	w, err := a.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Toggle flips the open state of the widget, creating it when needed
func (a *Assistant) Toggle(ctx context.Context, id string) (*models.ChatWidget, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	w, err := a.loadOrCreateLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	w.Open = !w.Open
	if err := a.saveLocked(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// PurgeExpired drops conversations idle for longer than the TTL
func (a *Assistant) PurgeExpired(ctx context.Context) (int, error) {
	return a.store.PurgeExpired(ctx, a.now().Add(-a.ttl))
}

func (a *Assistant) loadOrCreate(ctx context.Context, id string) (*models.ChatWidget, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadOrCreateLocked(ctx, id)
}

func (a *Assistant) loadOrCreateLocked(ctx context.Context, id string) (*models.ChatWidget, error) {
	if id == "" {
		return &models.ChatWidget{ID: uuid.New().String(), Messages: []models.ChatMessage{}}, nil
	}
	if len(id) > maxIDLength {
		return nil, ErrInvalidConvID
	}

	w, err := a.store.Load(ctx, id)
	if errors.Is(err, ErrConversationNotFound) {
		return &models.ChatWidget{ID: id, Messages: []models.ChatMessage{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return w, nil
}

func (a *Assistant) saveLocked(ctx context.Context, w *models.ChatWidget) error {
	w.UpdatedAt = a.now()
	if err := a.store.Save(ctx, w); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// trimHistory keeps the newest limit messages in a fresh slice
func trimHistory(messages []models.ChatMessage, limit int) []models.ChatMessage {
	if len(messages) <= limit {
		return messages
	}
	return append([]models.ChatMessage(nil), messages[len(messages)-limit:]...)
}
