package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/content-risk-filter/internal/core"
)

// SQLiteStore is a SQLite implementation of the VerdictStore interface.
type SQLiteStore struct {
	db        *sql.DB
	logger    *zap.Logger
	retention time.Duration
	sweepFreq time.Duration
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewSQLiteStore creates a new SQLite verdict store. A retention of zero
// keeps verdicts forever and disables the background sweep.
func NewSQLiteStore(dbPath string, logger *zap.Logger, retention, sweepFreq time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verdicts (
			fingerprint   TEXT PRIMARY KEY,
			processing_id TEXT,
			decision      TEXT NOT NULL,
			score         REAL NOT NULL,
			confidence    REAL NOT NULL,
			signals       TEXT NOT NULL,
			reason        TEXT,
			analyzed_at   TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Create index on analyzed_at for faster retention sweeps
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_verdicts_analyzed_at ON verdicts(analyzed_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	s := &SQLiteStore{
		db:        db,
		logger:    logger,
		retention: retention,
		sweepFreq: sweepFreq,
		stopCh:    make(chan struct{}),
	}

	if retention > 0 && sweepFreq > 0 {
		go s.startSweepTask()
	}

	return s, nil
}

// Save inserts or replaces the verdict for its fingerprint.
func (s *SQLiteStore) Save(ctx context.Context, verdict *core.Verdict) error {
	signals, err := json.Marshal(verdict.Signals)
	if err != nil {
		return fmt.Errorf("failed to encode signals: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO verdicts
			(fingerprint, processing_id, decision, score, confidence, signals, reason, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, string(verdict.Fingerprint), verdict.ProcessingID, string(verdict.Decision),
		verdict.Score, verdict.Confidence, string(signals), verdict.Reason,
		verdict.AnalyzedAt.UTC().Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("failed to insert verdict: %w", err)
	}
	return nil
}

// Load retrieves the stored verdict for a fingerprint.
func (s *SQLiteStore) Load(ctx context.Context, fp core.Fingerprint) (*core.Verdict, error) {
	var verdict core.Verdict
	var decision, signals, analyzedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT processing_id, decision, score, confidence, signals, reason, analyzed_at
		FROM verdicts
		WHERE fingerprint = ?
	`, string(fp)).Scan(&verdict.ProcessingID, &decision, &verdict.Score,
		&verdict.Confidence, &signals, &verdict.Reason, &analyzedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query verdict: %w", err)
	}

	verdict.Decision = core.Decision(decision)
	verdict.Fingerprint = fp
	if err := json.Unmarshal([]byte(signals), &verdict.Signals); err != nil {
		return nil, fmt.Errorf("failed to decode signals: %w", err)
	}
	verdict.AnalyzedAt, err = time.Parse(time.RFC3339, analyzedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse analyzed_at timestamp: %w", err)
	}

	return &verdict, nil
}

// Stats reports row count and database file size.
func (s *SQLiteStore) Stats(ctx context.Context) (core.StoreStats, error) {
	stats := core.StoreStats{Kind: "sqlite"}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM verdicts`).Scan(&stats.Records); err != nil {
		return stats, fmt.Errorf("failed to count verdicts: %w", err)
	}

	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, `PRAGMA page_count`).Scan(&pageCount); err == nil {
		if err := s.db.QueryRowContext(ctx, `PRAGMA page_size`).Scan(&pageSize); err == nil {
			stats.SizeBytes = pageCount * pageSize
		}
	}

	return stats, nil
}

// sweep removes verdicts older than the retention window.
func (s *SQLiteStore) sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-s.retention).UTC().Format(time.RFC3339)
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM verdicts
		WHERE analyzed_at <= ?
	`, cutoff)

	if err != nil {
		return fmt.Errorf("failed to sweep old verdicts: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logger.Warn("Failed to get rows affected during sweep", zap.Error(err))
	} else if rowsAffected > 0 {
		s.logger.Debug("Swept old verdicts", zap.Int64("removed", rowsAffected))
	}

	return nil
}

// startSweepTask starts a background task enforcing the retention window.
func (s *SQLiteStore) startSweepTask() {
	ticker := time.NewTicker(s.sweepFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.sweep(context.Background()); err != nil {
				s.logger.Error("Failed to sweep verdict store", zap.Error(err))
			}
		case <-s.stopCh:
			return
		}
	}
}

// Close stops the background sweep and closes the database connection.
func (s *SQLiteStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close SQLite database: %w", err)
	}
	return nil
}
