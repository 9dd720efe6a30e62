package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/wings-of-wisdom/internal/models"
)

const maxNicknameRunes = 40

// ResultStore records finished sessions for the leaderboard.
// Saving a session again replaces its earlier result.
type ResultStore interface {
	SaveQuizResult(ctx context.Context, r *models.QuizResult) error
	ListQuizResults(ctx context.Context, limit int) ([]*models.QuizResult, error)
}

// Manager owns quiz sessions and applies transitions to them
type Manager struct {
	engine  *Engine
	store   Store
	results ResultStore
	ttl     time.Duration
	now     func() time.Time

	// serializes load-mutate-save
	mu sync.Mutex
}

// NewManager creates a session manager. results may be nil.
func NewManager(engine *Engine, store Store, results ResultStore, ttl time.Duration) *Manager {
	return &Manager{
		engine:  engine,
		store:   store,
		results: results,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Engine returns the question engine
func (m *Manager) Engine() *Engine {
	return m.engine
}

// Start creates a new session at the first question
func (m *Manager) Start(ctx context.Context, nickname string) (*Session, error) {
	s := m.engine.NewSession(uuid.New().String(), cleanNickname(nickname))
	now := m.now()
	s.CreatedAt = now
	s.UpdatedAt = now

	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to start quiz: %w", err)
	}

	slog.Info("quiz session started", "session_id", s.ID)
	return s, nil
}

// Get loads a session
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	return m.load(ctx, id)
}

// Select records the pending option of a session
func (m *Manager) Select(ctx context.Context, id string, index int) (*Session, error) {
	var s *Session
	err := m.mutate(ctx, id, func(sess *Session) error {
		s = sess
		return sess.Select(index)
	})
	return s, err
}

// Submit scores the pending option of a session
func (m *Manager) Submit(ctx context.Context, id string) (*Session, models.AnswerResult, error) {
	var (
		s   *Session
		res models.AnswerResult
	)
	err := m.mutate(ctx, id, func(sess *Session) error {
		s = sess
		var err error
		res, err = sess.Submit()
		return err
	})
	if err != nil {
		return nil, models.AnswerResult{}, err
	}

	if res.Finished {
		m.record(ctx, s)
	}
	return s, res, nil
}

// Answer selects index and submits it in one step
func (m *Manager) Answer(ctx context.Context, id string, index int) (*Session, models.AnswerResult, error) {
	var (
		s   *Session
		res models.AnswerResult
	)
	err := m.mutate(ctx, id, func(sess *Session) error {
		s = sess
		if err := sess.Select(index); err != nil {
			return err
		}
		var err error
		res, err = sess.Submit()
		return err
	})
	if err != nil {
		return nil, models.AnswerResult{}, err
	}

	if res.Finished {
		m.record(ctx, s)
	}
	return s, res, nil
}

// Restart resets a session to the first question
func (m *Manager) Restart(ctx context.Context, id string) (*Session, error) {
	var s *Session
	err := m.mutate(ctx, id, func(sess *Session) error {
		s = sess
		sess.Restart()
		return nil
	})
	return s, err
}

// Result returns the final tally of a finished session
func (m *Manager) Result(ctx context.Context, id string) (models.QuizScore, error) {
	s, err := m.load(ctx, id)
	if err != nil {
		return models.QuizScore{}, err
	}
	return s.Result()
}

// Delete removes a session
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Delete(ctx, id)
}

// PurgeExpired removes sessions idle for longer than the TTL
func (m *Manager) PurgeExpired(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.PurgeExpired(ctx, m.now().Add(-m.ttl))
}

// Leaderboard returns the best recorded results
func (m *Manager) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if m.results == nil {
		return []models.LeaderboardEntry{}, nil
	}
	results, err := m.results.ListQuizResults(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz results: %w", err)
	}
	return Rank(results, limit), nil
}

func (m *Manager) load(ctx context.Context, id string) (*Session, error) {
	s, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.ttl > 0 && m.now().Sub(s.UpdatedAt) > m.ttl {
		return nil, ErrSessionNotFound
	}
	m.engine.Attach(s)
	return s, nil
}

func (m *Manager) mutate(ctx context.Context, id string, fn func(*Session) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.load(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}

	now := m.now()
	s.UpdatedAt = now
	if s.Finished() && s.FinishedAt == nil {
		s.FinishedAt = &now
	}
	if err := m.store.Save(ctx, s); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (m *Manager) record(ctx context.Context, s *Session) {
	if m.results == nil {
		return
	}
	res := &models.QuizResult{
		SessionID:  s.ID,
		Nickname:   s.Nickname,
		Score:      s.Score,
		Total:      m.engine.Len(),
		FinishedAt: *s.FinishedAt,
	}
	if err := m.results.SaveQuizResult(ctx, res); err != nil {
		slog.Warn("failed to record quiz result",
			"session_id", s.ID,
			"error", err,
		)
		return
	}
	slog.Info("quiz finished",
		"session_id", s.ID,
		"score", s.Score,
		"total", res.Total,
	)
}

func cleanNickname(nickname string) string {
	nickname = strings.TrimSpace(nickname)
	runes := []rune(nickname)
	if len(runes) > maxNicknameRunes {
		nickname = string(runes[:maxNicknameRunes])
	}
	return nickname
}
