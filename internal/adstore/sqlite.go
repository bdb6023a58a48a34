// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package adstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver
)

// SQLiteConfig defines SQLite operational parameters.
type SQLiteConfig struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// DefaultSQLiteConfig uses a single writer connection.
func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 1,
	}
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ad_intervals (
	channel  TEXT    NOT NULL,
	start_ms INTEGER NOT NULL,
	end_ms   INTEGER NOT NULL,
	PRIMARY KEY (channel, start_ms)
);
CREATE INDEX IF NOT EXISTS ad_intervals_end ON ad_intervals (channel, end_ms);
`

// SQLiteStore keeps intervals in a local SQLite database (WAL mode).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (and creates when missing) the database at path.
func NewSQLite(ctx context.Context, path string, cfg SQLiteConfig) (*SQLiteStore, error) {
	// PRAGMAs in the DSN apply to every pooled connection.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func queryIntervals(ctx context.Context, q interface {
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
}, query string, args ...any) ([]Interval, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query intervals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Interval
	for rows.Next() {
		var iv Interval
		if err := rows.Scan(&iv.StartMs, &iv.EndMs); err != nil {
			return nil, fmt.Errorf("sqlite: scan interval: %w", err)
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Merge(ctx context.Context, channel string, ivs []Interval) (err error) {
	key, err := Key(channel)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	existing, err := queryIntervals(ctx, tx,
		`SELECT start_ms, end_ms FROM ad_intervals WHERE channel = ? ORDER BY start_ms`, key)
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM ad_intervals WHERE channel = ?`, key); err != nil {
		return fmt.Errorf("sqlite: delete intervals: %w", err)
	}
	for _, iv := range MergeIntervals(existing, ivs) {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO ad_intervals (channel, start_ms, end_ms) VALUES (?, ?, ?)`,
			key, iv.StartMs, iv.EndMs); err != nil {
			return fmt.Errorf("sqlite: insert interval: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, channel string, fromMs, toMs int64) ([]Interval, error) {
	key, err := Key(channel)
	if err != nil {
		return nil, err
	}
	ivs, err := queryIntervals(ctx, s.db,
		`SELECT start_ms, end_ms FROM ad_intervals WHERE channel = ? AND end_ms > ? ORDER BY start_ms`, key, fromMs)
	if err != nil {
		return nil, err
	}
	return Window(ivs, fromMs, toMs), nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
