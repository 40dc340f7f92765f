// Package storage keeps the session-scoped SQLite store: the model response
// cache and the log of model attempts.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database that disappears on Close.
const MemoryPath = ":memory:"

// CachedResponse is a raw model response stored by request hash.
type CachedResponse struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// SQLiteStore implements the response cache and attempt log using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens the store at dbPath. Use MemoryPath (the default when
// dbPath is empty) to keep nothing beyond the current run.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = MemoryPath
	}

	// Configure SQLite with WAL mode and busy timeout for better concurrency
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	if dbPath == MemoryPath {
		dsn = fmt.Sprintf("%s?_pragma=busy_timeout(5000)", dbPath)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dbPath == MemoryPath {
		// Every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	} else if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		db.Close()
		return nil, fmt.Errorf("failed to set database permissions: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	responseCacheQuery := `
	CREATE TABLE IF NOT EXISTS response_cache (
		request_hash TEXT PRIMARY KEY,
		response_text TEXT NOT NULL,
		input_tokens INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(responseCacheQuery); err != nil {
		return fmt.Errorf("failed to create response_cache table: %w", err)
	}

	runsQuery := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		file_count INTEGER NOT NULL,
		started_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(runsQuery); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	attemptsQuery := `
	CREATE TABLE IF NOT EXISTS attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		file TEXT NOT NULL,
		attempt INTEGER NOT NULL,
		status TEXT NOT NULL,
		delay_ms INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		created_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(attemptsQuery); err != nil {
		return fmt.Errorf("failed to create attempts table: %w", err)
	}

	if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_attempts_run ON attempts(run_id)"); err != nil {
		return fmt.Errorf("failed to create attempts index: %w", err)
	}

	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetResponse retrieves a cached response by request hash.
// Returns nil, nil if no cache entry exists.
func (s *SQLiteStore) GetResponse(hash string) (*CachedResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entry CachedResponse
	err := s.db.QueryRow(
		"SELECT response_text, input_tokens, output_tokens FROM response_cache WHERE request_hash = ?",
		hash,
	).Scan(&entry.Text, &entry.InputTokens, &entry.OutputTokens)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query response cache: %w", err)
	}

	return &entry, nil
}

// SetResponse stores a model response in the cache.
func (s *SQLiteStore) SetResponse(hash string, entry *CachedResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO response_cache (request_hash, response_text, input_tokens, output_tokens)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(request_hash) DO UPDATE SET
			response_text = excluded.response_text,
			input_tokens = excluded.input_tokens,
			output_tokens = excluded.output_tokens,
			created_at = CURRENT_TIMESTAMP
	`, hash, entry.Text, entry.InputTokens, entry.OutputTokens)

	if err != nil {
		return fmt.Errorf("failed to cache response: %w", err)
	}
	return nil
}
