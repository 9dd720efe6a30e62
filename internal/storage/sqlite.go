package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/terra-clan/wings-of-wisdom/internal/models"
)

// SQLiteRepository implements Repository on an embedded SQLite database
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository opens dsn and applies the embedded sqlite migrations
func NewSQLiteRepository(ctx context.Context, dsn string) (*SQLiteRepository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite dsn is required")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// every connection to :memory: is a separate database
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	if err := RunSQLiteMigrations(ctx, db, SQLiteMigrations()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

// Ping checks database connectivity
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database handle
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// CreateContactMessage stores a contact form submission
func (r *SQLiteRepository) CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error {
	query := `
		INSERT INTO contact_messages (id, name, email, subject, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		msg.ID,
		msg.Name,
		msg.Email,
		msg.Subject,
		msg.Message,
		toMillis(msg.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create contact message: %w", err)
	}

	return nil
}

// ListContactMessages lists contact messages, newest first
func (r *SQLiteRepository) ListContactMessages(ctx context.Context, filters models.ContactFilters) ([]*models.ContactMessage, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = -1
	}

	query := `
		SELECT id, name, email, subject, message, created_at
		FROM contact_messages
		WHERE (? = '' OR subject = ?)
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, filters.Subject, filters.Subject, limit, filters.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact messages: %w", err)
	}
	defer rows.Close()

	msgs := []*models.ContactMessage{}
	for rows.Next() {
		var m models.ContactMessage
		var createdAt int64
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact message: %w", err)
		}
		m.CreatedAt = fromMillis(createdAt)
		msgs = append(msgs, &m)
	}

	return msgs, rows.Err()
}

// SaveQuizResult records a finished quiz, replacing an earlier finish of the same session
func (r *SQLiteRepository) SaveQuizResult(ctx context.Context, res *models.QuizResult) error {
	query := `
		INSERT INTO quiz_results (session_id, nickname, score, total, finished_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE
		SET nickname = excluded.nickname, score = excluded.score,
			total = excluded.total, finished_at = excluded.finished_at
	`

	_, err := r.db.ExecContext(ctx, query, res.SessionID, res.Nickname, res.Score, res.Total, toMillis(res.FinishedAt))
	if err != nil {
		return fmt.Errorf("failed to save quiz result: %w", err)
	}

	return nil
}

// ListQuizResults returns the best results in leaderboard order
func (r *SQLiteRepository) ListQuizResults(ctx context.Context, limit int) ([]*models.QuizResult, error) {
	if limit <= 0 {
		limit = defaultResultLimit
	}

	query := `
		SELECT session_id, nickname, score, total, finished_at
		FROM quiz_results
		ORDER BY (score * 100 / total) DESC, score DESC, finished_at ASC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz results: %w", err)
	}
	defer rows.Close()

	results := []*models.QuizResult{}
	for rows.Next() {
		var res models.QuizResult
		var finishedAt int64
		if err := rows.Scan(&res.SessionID, &res.Nickname, &res.Score, &res.Total, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quiz result: %w", err)
		}
		res.FinishedAt = fromMillis(finishedAt)
		results = append(results, &res)
	}

	return results, rows.Err()
}

// EnsureApiClient inserts the client or refreshes it when the key already exists
func (r *SQLiteRepository) EnsureApiClient(ctx context.Context, client *models.ApiClient) error {
	permissionsJSON, err := json.Marshal(client.Permissions)
	if err != nil {
		return fmt.Errorf("failed to marshal permissions: %w", err)
	}

	query := `
		INSERT INTO api_clients (name, api_key, is_active, created_at, permissions)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (api_key) DO UPDATE
		SET name = excluded.name, is_active = excluded.is_active, permissions = excluded.permissions
		RETURNING id, created_at
	`

	var createdAt int64
	err = r.db.QueryRowContext(ctx, query,
		client.Name, client.ApiKey, client.IsActive, toMillis(r.now()), string(permissionsJSON),
	).Scan(&client.ID, &createdAt)
	if err != nil {
		return fmt.Errorf("failed to ensure api client: %w", err)
	}
	client.CreatedAt = fromMillis(createdAt)

	return nil
}

// GetClientByApiKey retrieves an API client by its key
func (r *SQLiteRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	query := `
		SELECT id, name, api_key, is_active, created_at, last_used_at, permissions
		FROM api_clients
		WHERE api_key = ?
	`

	var client models.ApiClient
	var createdAt int64
	var lastUsedAt sql.NullInt64
	var permissionsJSON string

	err := r.db.QueryRowContext(ctx, query, apiKey).Scan(
		&client.ID,
		&client.Name,
		&client.ApiKey,
		&client.IsActive,
		&createdAt,
		&lastUsedAt,
		&permissionsJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get api client: %w", err)
	}

	client.CreatedAt = fromMillis(createdAt)
	if lastUsedAt.Valid {
		t := fromMillis(lastUsedAt.Int64)
		client.LastUsedAt = &t
	}
	if err := json.Unmarshal([]byte(permissionsJSON), &client.Permissions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal permissions: %w", err)
	}

	return &client, nil
}

// UpdateClientLastUsed updates the last_used_at timestamp for a client
func (r *SQLiteRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	query := `UPDATE api_clients SET last_used_at = ? WHERE api_key = ?`

	if _, err := r.db.ExecContext(ctx, query, toMillis(r.now()), apiKey); err != nil {
		return fmt.Errorf("failed to update client last_used_at: %w", err)
	}

	return nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
