package report

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/portfolio-search/internal/benchmark"
	"github.com/Adithya-Monish-Kumar-K/portfolio-search/pkg/resilience"
)

// Schema creates the report table. Every statement is idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS benchmark_reports (
	    id          TEXT PRIMARY KEY,
	    data        JSONB NOT NULL,
	    captured_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS benchmark_reports_captured_at_idx
	    ON benchmark_reports (captured_at DESC)`,
}

const insertReport = `INSERT INTO benchmark_reports (id, data, captured_at)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, captured_at = EXCLUDED.captured_at`

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresSink upserts one row per suite into benchmark_reports.
type PostgresSink struct {
	db Execer
}

func NewPostgresSink(db Execer) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Publish(ctx context.Context, r benchmark.Report) error {
	data, err := encodeJSON(r)
	if err != nil {
		return resilience.Permanent(err)
	}
	if _, err := s.db.ExecContext(ctx, insertReport, r.Suite.ID, string(data), r.Timestamp); err != nil {
		return fmt.Errorf("inserting report %s: %w", r.Suite.ID, err)
	}
	return nil
}
