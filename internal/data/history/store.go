package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"classforge/internal/shared/observability"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Store is the append-only edit journal. Entries arrive in batches,
// usually one batch per flushed event group.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("journal path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("journal path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts when a session transport and
	// the watcher flush at the same time.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite journal %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite journal %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append journals a batch of entries in one transaction. The per-entry
// workspace key is overridden so a batch can never straddle workspaces.
func (s *Store) Append(workspaceKey string, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(entries) == 0 {
		return nil
	}
	workspaceKey = strings.TrimSpace(workspaceKey)
	if workspaceKey == "" {
		workspaceKey = "default"
	}

	start := time.Now()
	err := s.withRetry("append entries", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		stmt, err := tx.Prepare(`
INSERT INTO events (workspace_key, kind, block_id, field, old_value, new_value, group_id, source, ts_utc)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		defer stmt.Close()

		for _, e := range entries {
			ts := e.Timestamp
			if ts.IsZero() {
				ts = time.Now()
			}
			if _, err := stmt.Exec(
				workspaceKey,
				e.Kind,
				e.BlockID,
				e.Field,
				e.Old,
				e.New,
				e.GroupID,
				e.Source,
				ts.UTC().Format(time.RFC3339Nano),
			); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
	if err == nil {
		observability.StoreWriteDuration.WithLabelValues("journal").Observe(time.Since(start).Seconds())
	}
	return err
}

// LoadSince returns a workspace's entries at or after since, oldest first.
func (s *Store) LoadSince(workspaceKey string, since time.Time) ([]Entry, error) {
	base := `
SELECT id, workspace_key, kind, block_id, field, old_value, new_value, group_id, source, ts_utc
FROM events
WHERE workspace_key = ?
`
	args := make([]any, 0, 2)
	args = append(args, keyOrDefault(workspaceKey))
	if !since.IsZero() {
		base += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	base += " ORDER BY id ASC"
	return s.load(base, args...)
}

// LoadGroup returns the entries of one event group, oldest first. An
// unknown group is an empty result, not an error.
func (s *Store) LoadGroup(workspaceKey, groupID string) ([]Entry, error) {
	query := `
SELECT id, workspace_key, kind, block_id, field, old_value, new_value, group_id, source, ts_utc
FROM events
WHERE workspace_key = ? AND group_id = ?
ORDER BY id ASC
`
	return s.load(query, keyOrDefault(workspaceKey), groupID)
}

// Prune deletes a workspace's entries older than before and reports how
// many went.
func (s *Store) Prune(workspaceKey string, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	err := s.withRetry("prune entries", func() error {
		res, err := s.db.Exec(
			`DELETE FROM events WHERE workspace_key = ? AND ts_utc < ?`,
			keyOrDefault(workspaceKey),
			before.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}

func (s *Store) load(query string, args ...any) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load entries", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e     Entry
			tsRaw string
		)
		if err := rows.Scan(
			&e.ID,
			&e.WorkspaceKey,
			&e.Kind,
			&e.BlockID,
			&e.Field,
			&e.Old,
			&e.New,
			&e.GroupID,
			&e.Source,
			&tsRaw,
		); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse journal timestamp %q: %w", tsRaw, err)
		}
		e.Timestamp = ts.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal rows: %w", err)
	}

	return entries, nil
}

func keyOrDefault(workspaceKey string) string {
	workspaceKey = strings.TrimSpace(workspaceKey)
	if workspaceKey == "" {
		return "default"
	}
	return workspaceKey
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
