package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oneinstack/mirror/internal/domain"
)

// ScrapeLogStore appends and queries scrape_logs rows. Rows are written one
// per adapter completion, immediately, so partial cycle progress survives a
// crash.
type ScrapeLogStore struct {
	db *sql.DB
}

// NewScrapeLogStore creates a store on an open pool.
func NewScrapeLogStore(db *sql.DB) *ScrapeLogStore {
	return &ScrapeLogStore{db: db}
}

// Append inserts one log row and returns its ID.
func (s *ScrapeLogStore) Append(ctx context.Context, log domain.ScrapeLog) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO scrape_logs
			(adapter_name, status, resources_count, error_message, duration_ms, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.AdapterName,
		string(log.Status),
		log.ResourcesCount,
		nullableString(log.ErrorMessage),
		log.Duration.Milliseconds(),
		log.StartedAt.UTC(),
		log.FinishedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert scrape log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read scrape log id: %w", err)
	}
	return id, nil
}

// List returns rows newest first.
func (s *ScrapeLogStore) List(ctx context.Context, limit, offset int) ([]domain.ScrapeLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, adapter_name, status, resources_count, error_message, duration_ms, started_at, finished_at
		FROM scrape_logs
		ORDER BY started_at DESC, id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query scrape logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.ScrapeLog
	for rows.Next() {
		var (
			l          domain.ScrapeLog
			status     string
			errMsg     sql.NullString
			durationMS int64
		)
		if err := rows.Scan(&l.ID, &l.AdapterName, &status, &l.ResourcesCount, &errMsg, &durationMS, &l.StartedAt, &l.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scrape log: %w", err)
		}
		l.Status = domain.ScrapeStatus(status)
		l.ErrorMessage = errMsg.String
		l.Duration = time.Duration(durationMS) * time.Millisecond
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scrape logs: %w", err)
	}
	return logs, nil
}

// Count returns the total number of rows.
func (s *ScrapeLogStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scrape_logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count scrape logs: %w", err)
	}
	return n, nil
}

// PruneOlderThan deletes rows started before cutoff and reports how many
// were removed.
func (s *ScrapeLogStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scrape_logs WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune scrape logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read pruned row count: %w", err)
	}
	return n, nil
}

// Ping verifies the connection, for health checks.
func (s *ScrapeLogStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
