package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"dmars/logging"
	"dmars/utils"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS domains (
		id            BIGSERIAL PRIMARY KEY,
		domain_name   VARCHAR(255) NOT NULL UNIQUE,
		category      VARCHAR(100) NOT NULL,
		price         DOUBLE PRECISION NOT NULL,
		keyword_score DOUBLE PRECISION NOT NULL,
		views         BIGINT NOT NULL DEFAULT 0,
		clicks        BIGINT NOT NULL DEFAULT 0,
		is_sold       BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_domains_category ON domains(category);
	CREATE INDEX IF NOT EXISTS idx_domains_is_sold  ON domains(is_sold);
`

// NewPostgres opens a connection to PostgreSQL, waits for the server with
// exponential back-off (it may still be starting under docker compose),
// and runs schema migrations.
func NewPostgres(dsn string, maxRetries int, logger *logging.Logger) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.RetryConfig{
		MaxAttempts: maxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	}
	if err := retry.Do("postgres ping", db.Ping); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return &SQLStore{db: db, dollar: true}, nil
}
