// Package analytics records search events in SQLite and reports popular queries.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS search_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id  TEXT    NOT NULL,
	locale      TEXT    NOT NULL DEFAULT '',
	query       TEXT    NOT NULL,
	normalized  TEXT    NOT NULL,
	total       INTEGER NOT NULL DEFAULT 0,
	page        INTEGER NOT NULL DEFAULT 1,
	filters     TEXT    NOT NULL DEFAULT '',
	duration_us INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_search_events_created ON search_events(created_at);
CREATE INDEX IF NOT EXISTS idx_search_events_normalized ON search_events(normalized);
`

// SearchEvent describes one answered search request.
type SearchEvent struct {
	RequestID string
	Locale    string
	Query     string
	Total     int
	Page      int
	Filters   string
	Duration  time.Duration
	At        time.Time
}

// QueryCount is one row of the popular-queries report.
type QueryCount struct {
	Query       string `json:"query"`
	Count       int    `json:"count"`
	ZeroResults int    `json:"zeroResults"`
}

// Store wraps a sql.DB holding search events.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*Store, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("analytics: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("analytics: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("analytics: apply schema: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Record stores one event.
func (s *Store) Record(ctx context.Context, ev SearchEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO search_events (request_id, locale, query, normalized, total, page, filters, duration_us, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.RequestID, ev.Locale, ev.Query, normalize(ev.Query), ev.Total, ev.Page, ev.Filters,
		ev.Duration.Microseconds(), at.UnixMilli())
	if err != nil {
		return fmt.Errorf("analytics: insert event: %w", err)
	}
	return nil
}

// TopQueries returns the most frequent normalized queries recorded at or
// after since. An empty locale matches every locale.
func (s *Store) TopQueries(ctx context.Context, locale string, since time.Time, limit int) ([]QueryCount, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.conn.QueryContext(ctx, `
		SELECT normalized, COUNT(*), SUM(CASE WHEN total = 0 THEN 1 ELSE 0 END)
		FROM search_events
		WHERE created_at >= ? AND (? = '' OR locale = ?)
		GROUP BY normalized
		ORDER BY COUNT(*) DESC, normalized ASC
		LIMIT ?
	`, since.UnixMilli(), locale, locale, limit)
	if err != nil {
		return nil, fmt.Errorf("analytics: top queries: %w", err)
	}
	defer rows.Close()

	out := []QueryCount{}
	for rows.Next() {
		var qc QueryCount
		if err := rows.Scan(&qc.Query, &qc.Count, &qc.ZeroResults); err != nil {
			return nil, fmt.Errorf("analytics: scan: %w", err)
		}
		out = append(out, qc)
	}
	return out, rows.Err()
}

// Count returns the number of stored events.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM search_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("analytics: count: %w", err)
	}
	return n, nil
}

func normalize(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
