package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jwulff/touchread/internal/pacing"
	"github.com/jwulff/touchread/internal/progress"
	"github.com/jwulff/touchread/internal/settings"

	_ "modernc.org/sqlite"
)

const previewLen = 80

// Store provides access to the touchread SQLite database.
type Store struct {
	db *sql.DB
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "touchread", "touchread.sqlite")
}

// Open opens (creating if needed) the database with WAL and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s, err := newStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func newStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadSettings returns the saved settings, or nil if none were saved yet.
func (s *Store) LoadSettings(ctx context.Context) (*settings.Settings, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT wpm, fontSize, punctuationSensitive, showORP, useAnimation, showProgress
		FROM settings
		WHERE id = 1
	`)

	var st settings.Settings
	if err := row.Scan(&st.WPM, &st.FontSize, &st.PunctuationSensitive,
		&st.ShowORP, &st.UseAnimation, &st.ShowProgress); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan settings: %w", err)
	}
	st = st.Normalize()
	return &st, nil
}

// SaveSettings stores st after normalizing it.
func (s *Store) SaveSettings(ctx context.Context, st settings.Settings) error {
	st = st.Normalize()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, wpm, fontSize, punctuationSensitive, showORP, useAnimation, showProgress, updatedAt)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			wpm = excluded.wpm,
			fontSize = excluded.fontSize,
			punctuationSensitive = excluded.punctuationSensitive,
			showORP = excluded.showORP,
			useAnimation = excluded.useAnimation,
			showProgress = excluded.showProgress,
			updatedAt = excluded.updatedAt
	`, st.WPM, st.FontSize, st.PunctuationSensitive, st.ShowORP, st.UseAnimation, st.ShowProgress,
		unixFromTime(time.Now()))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// LoadReadingState returns the current reading, or nil if there is none.
func (s *Store) LoadReadingState(ctx context.Context) (*progress.ReadingState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT content, progress, createdAt, lastReadAt
		FROM reading_state
		WHERE id = 1
	`)

	var st progress.ReadingState
	var createdAt, lastReadAt float64
	if err := row.Scan(&st.Content, &st.Progress, &createdAt, &lastReadAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan reading state: %w", err)
	}
	st.CreatedAt = timeFromUnix(createdAt)
	st.LastReadAt = timeFromUnix(lastReadAt)
	return &st, nil
}

// SaveReadingState replaces the current reading and updates its history
// entry. A write older than the stored one for the same reading is dropped,
// so saves issued from concurrent commands cannot move progress backwards.
func (s *Store) SaveReadingState(ctx context.Context, st progress.ReadingState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	createdAt := unixFromTime(st.CreatedAt)
	lastReadAt := unixFromTime(st.LastReadAt)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO reading_state (id, content, progress, createdAt, lastReadAt)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			progress = excluded.progress,
			createdAt = excluded.createdAt,
			lastReadAt = excluded.lastReadAt
		WHERE excluded.createdAt != reading_state.createdAt
			OR excluded.lastReadAt >= reading_state.lastReadAt
	`, st.Content, st.Progress, createdAt, lastReadAt); err != nil {
		return fmt.Errorf("upsert reading state: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO readings (preview, wordCount, progress, createdAt, lastReadAt)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(createdAt) DO UPDATE SET
			progress = excluded.progress,
			lastReadAt = excluded.lastReadAt
		WHERE excluded.lastReadAt >= readings.lastReadAt
	`, preview(st.Content), pacing.CountWords(st.Content), st.Progress, createdAt, lastReadAt); err != nil {
		return fmt.Errorf("upsert reading: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ClearReadingState forgets the current reading. History is kept.
func (s *Store) ClearReadingState(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reading_state WHERE id = 1`); err != nil {
		return fmt.Errorf("clear reading state: %w", err)
	}
	return nil
}

// RecentReadings returns up to limit history entries, most recently read first.
func (s *Store) RecentReadings(ctx context.Context, limit int) ([]Reading, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, preview, wordCount, progress, createdAt, lastReadAt
		FROM readings
		ORDER BY lastReadAt DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var readings []Reading
	for rows.Next() {
		var r Reading
		var createdAt, lastReadAt float64
		if err := rows.Scan(&r.ID, &r.Preview, &r.WordCount, &r.Progress, &createdAt, &lastReadAt); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		r.CreatedAt = timeFromUnix(createdAt)
		r.LastReadAt = timeFromUnix(lastReadAt)
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

var _ progress.Store = (*Store)(nil)

func preview(content string) string {
	runes := []rune(strings.Join(pacing.Tokenize(content), " "))
	if len(runes) <= previewLen {
		return string(runes)
	}
	return string(runes[:previewLen-1]) + "…"
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

func unixFromTime(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
