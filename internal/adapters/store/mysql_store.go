package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mikey/content-risk-filter/internal/core"
)

// MySQLStore is a MySQL implementation of the VerdictStore interface.
type MySQLStore struct {
	db        *sql.DB
	logger    *zap.Logger
	retention time.Duration
	sweepFreq time.Duration
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewMySQLStore creates a new MySQL verdict store. A retention of zero
// keeps verdicts forever and disables the background sweep.
func NewMySQLStore(dsn string, logger *zap.Logger, retention, sweepFreq time.Duration) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	// Create table if it doesn't exist
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS verdicts (
			fingerprint   VARCHAR(32) PRIMARY KEY,
			processing_id VARCHAR(36),
			decision      VARCHAR(32) NOT NULL,
			score         DOUBLE NOT NULL,
			confidence    DOUBLE NOT NULL,
			signals       TEXT NOT NULL,
			reason        VARCHAR(64),
			analyzed_at   DATETIME NOT NULL,
			INDEX idx_analyzed_at (analyzed_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	s := &MySQLStore{
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

// Save upserts the verdict for its fingerprint.
func (s *MySQLStore) Save(ctx context.Context, verdict *core.Verdict) error {
	signals, err := json.Marshal(verdict.Signals)
	if err != nil {
		return fmt.Errorf("failed to encode signals: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verdicts
			(fingerprint, processing_id, decision, score, confidence, signals, reason, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			processing_id = VALUES(processing_id),
			decision = VALUES(decision),
			score = VALUES(score),
			confidence = VALUES(confidence),
			signals = VALUES(signals),
			reason = VALUES(reason),
			analyzed_at = VALUES(analyzed_at)
	`, string(verdict.Fingerprint), verdict.ProcessingID, string(verdict.Decision),
		verdict.Score, verdict.Confidence, string(signals), verdict.Reason,
		verdict.AnalyzedAt.UTC().Format("2006-01-02 15:04:05"))

	if err != nil {
		return fmt.Errorf("failed to insert verdict: %w", err)
	}
	return nil
}

// Load retrieves the stored verdict for a fingerprint.
func (s *MySQLStore) Load(ctx context.Context, fp core.Fingerprint) (*core.Verdict, error) {
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
	verdict.AnalyzedAt, err = time.Parse("2006-01-02 15:04:05", analyzedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse analyzed_at timestamp: %w", err)
	}

	return &verdict, nil
}

// Stats reports row count and on-disk table size.
func (s *MySQLStore) Stats(ctx context.Context) (core.StoreStats, error) {
	stats := core.StoreStats{Kind: "mysql"}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM verdicts`).Scan(&stats.Records); err != nil {
		return stats, fmt.Errorf("failed to count verdicts: %w", err)
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(data_length + index_length, 0)
		FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_name = 'verdicts'
	`).Scan(&stats.SizeBytes)
	if err != nil {
		s.logger.Warn("Failed to read table size", zap.Error(err))
	}

	return stats, nil
}

// sweep removes verdicts older than the retention window.
func (s *MySQLStore) sweep(ctx context.Context) error {
	cutoff := time.Now().Add(-s.retention).UTC().Format("2006-01-02 15:04:05")
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
func (s *MySQLStore) startSweepTask() {
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
func (s *MySQLStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close MySQL database: %w", err)
	}
	return nil
}
