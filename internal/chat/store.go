package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/terra-clan/wings-of-wisdom/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

// ConversationStore persists chat widget state
type ConversationStore interface {
	// Load returns ErrConversationNotFound for unknown ids
	Load(ctx context.Context, id string) (*models.ChatWidget, error)
	Save(ctx context.Context, w *models.ChatWidget) error
	Delete(ctx context.Context, id string) error
	// PurgeExpired drops conversations last updated before cutoff
	PurgeExpired(ctx context.Context, cutoff time.Time) (int, error)
}

// MemoryConversationStore keeps conversations in process memory
type MemoryConversationStore struct {
	mu    sync.RWMutex
	convs map[string]*models.ChatWidget
}

// NewMemoryConversationStore creates an empty store
func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{convs: make(map[string]*models.ChatWidget)}
}

func (m *MemoryConversationStore) Load(_ context.Context, id string) (*models.ChatWidget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.convs[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return cloneWidget(w), nil
}

func (m *MemoryConversationStore) Save(_ context.Context, w *models.ChatWidget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.convs[w.ID] = cloneWidget(w)
	return nil
}

func (m *MemoryConversationStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.convs, id)
	return nil
}

func (m *MemoryConversationStore) PurgeExpired(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	purged := 0
	for id, w := range m.convs {
		if w.UpdatedAt.Before(cutoff) {
			delete(m.convs, id)
			purged++
		}
	}
	return purged, nil
}

func cloneWidget(w *models.ChatWidget) *models.ChatWidget {
	c := *w
	c.Messages = append([]models.ChatMessage(nil), w.Messages...)
	return &c
}

const redisKeyPrefix = "wow:chat:"

// RedisConversationStore keeps conversations as JSON values that expire after ttl
type RedisConversationStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisConversationStore creates a store on an existing redis client
func NewRedisConversationStore(client *redis.Client, ttl time.Duration) *RedisConversationStore {
	return &RedisConversationStore{client: client, ttl: ttl}
}

func (r *RedisConversationStore) Load(ctx context.Context, id string) (*models.ChatWidget, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	var w models.ChatWidget
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode conversation: %w", err)
	}
	return &w, nil
}

func (r *RedisConversationStore) Save(ctx context.Context, w *models.ChatWidget) error {
	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to encode conversation: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+w.ID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

func (r *RedisConversationStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// PurgeExpired is a no-op; redis expires keys itself
func (r *RedisConversationStore) PurgeExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}
