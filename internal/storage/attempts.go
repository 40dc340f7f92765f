package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Attempt statuses.
const (
	AttemptOK          = "ok"
	AttemptRateLimited = "rate_limited"
	AttemptFailed      = "failed"
)

// Run is one invocation of the batch pipeline.
type Run struct {
	ID        string
	FileCount int
	StartedAt time.Time
}

// Attempt is a single model call attempt.
type Attempt struct {
	RunID    string
	File     string
	Attempt  int
	Status   string
	DelayMS  int64
	Duration time.Duration
	Error    string
}

// RunStats summarizes the attempts of a run.
type RunStats struct {
	Attempts    int
	Succeeded   int
	RateLimited int
	Failed      int
	// Retries counts attempts after the first for each file.
	Retries      int
	TotalDelayMS int64
}

// CreateRun registers a new run with a fresh ID.
func (s *SQLiteStore) CreateRun(fileCount int) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run := &Run{
		ID:        uuid.New().String(),
		FileCount: fileCount,
		StartedAt: time.Now(),
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, file_count, started_at) VALUES (?, ?, ?)`,
		run.ID, run.FileCount, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return run, nil
}

// RecordAttempt appends an attempt to the log.
func (s *SQLiteStore) RecordAttempt(a Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errText sql.NullString
	if a.Error != "" {
		errText = sql.NullString{String: a.Error, Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO attempts (run_id, file, attempt, status, delay_ms, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.RunID, a.File, a.Attempt, a.Status, a.DelayMS, a.Duration.Milliseconds(), errText, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// GetAttempts returns the attempts of a run in insertion order.
func (s *SQLiteStore) GetAttempts(runID string) ([]Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT run_id, file, attempt, status, delay_ms, duration_ms, error FROM attempts WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		var durationMS int64
		var errText sql.NullString
		if err := rows.Scan(&a.RunID, &a.File, &a.Attempt, &a.Status, &a.DelayMS, &durationMS, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		a.Duration = time.Duration(durationMS) * time.Millisecond
		a.Error = errText.String
		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}

// GetRunStats aggregates the attempt log of a run.
func (s *SQLiteStore) GetRunStats(runID string) (RunStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats RunStats
	err := s.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN attempt > 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(delay_ms), 0)
		FROM attempts WHERE run_id = ?`,
		AttemptOK, AttemptRateLimited, AttemptFailed, runID,
	).Scan(&stats.Attempts, &stats.Succeeded, &stats.RateLimited, &stats.Failed, &stats.Retries, &stats.TotalDelayMS)
	if err != nil {
		return RunStats{}, fmt.Errorf("failed to query run stats: %w", err)
	}

	return stats, nil
}
