package services

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresProbe checks PostgreSQL reachability over its own small connection
type PostgresProbe struct {
	BaseProbe
	db *sql.DB
}

// NewPostgresProbe opens a database/sql handle for health checks
func NewPostgresProbe(dsn string) (*PostgresProbe, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &PostgresProbe{
		BaseProbe: BaseProbe{name: "postgres"},
		db:        db,
	}, nil
}

// HealthCheck runs a trivial query
func (p *PostgresProbe) HealthCheck(ctx context.Context) error {
	var one int
	if err := p.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("postgres query failed: %w", err)
	}
	return nil
}

// Close closes the probe connection
func (p *PostgresProbe) Close() error {
	return p.db.Close()
}
