package storage

import (
	"context"
	"fmt"

	"github.com/terra-clan/wings-of-wisdom/internal/models"
)

// Repository defines the interface for site persistence
type Repository interface {
	// Contact messages
	CreateContactMessage(ctx context.Context, msg *models.ContactMessage) error
	ListContactMessages(ctx context.Context, filters models.ContactFilters) ([]*models.ContactMessage, error)

	// Quiz results, one row per session
	SaveQuizResult(ctx context.Context, r *models.QuizResult) error
	ListQuizResults(ctx context.Context, limit int) ([]*models.QuizResult, error)

	// API Clients
	EnsureApiClient(ctx context.Context, client *models.ApiClient) error
	GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error)
	UpdateClientLastUsed(ctx context.Context, apiKey string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}

const defaultResultLimit = 10

// Options selects and configures a repository backend
type Options struct {
	Driver       string // postgres | sqlite
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Open connects to the configured backend and applies its migrations
func Open(ctx context.Context, opts Options) (Repository, error) {
	switch opts.Driver {
	case "postgres":
		if err := MigrateFromDSN(ctx, opts.DSN); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		repo, err := NewPostgresRepository(ctx, PostgresConfig{
			DSN:          opts.DSN,
			MaxOpenConns: int32(opts.MaxOpenConns),
			MaxIdleConns: int32(opts.MaxIdleConns),
		})
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "sqlite":
		repo, err := NewSQLiteRepository(ctx, opts.DSN)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", opts.Driver)
	}
}
