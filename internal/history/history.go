// Package history persists remediation runs and agent actions to SQLite
// via GORM. Uses modernc.org/sqlite (pure Go, no CGO) through the
// glebarez/sqlite GORM driver. The store is an audit trail only — the
// remediation loop never reads it back to make decisions.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RunRecord is one remediation run.
type RunRecord struct {
	ID            string `gorm:"primaryKey"`
	TargetDir     string
	Status        string
	Iterations    int
	PylintBefore  float64
	PylintAfter   float64
	TestsPassed   int
	TestsFailed   int
	StartedAt     time.Time
	CompletedAt   *time.Time
}

// ActionRecord is one agent action within a run: an LLM call, a file
// write, a test run, or an analysis pass.
type ActionRecord struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	RunID        string `gorm:"index"`
	Iteration    int
	Agent        string
	Action       string
	Target       string
	Success      bool
	Detail       string `gorm:"type:text"`
	DurationMS   int64
	InputTokens  int
	OutputTokens int
	CreatedAt    time.Time
}

// Store is the SQLite-backed history store.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open creates a history Store at the given path.
func Open(path string, slogger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history path is required")
	}

	// Ensure parent directory exists.
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("creating history directory %s: %w", dir, err)
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)", path)

	gormLogger := logger.New(
		slogAdapter{slogger},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db, logger: slogger}
	slogger.Info("history store opened", slog.String("path", path))
	return s, nil
}

// Migrate runs GORM AutoMigrate to create/update tables.
func (s *Store) Migrate(_ context.Context) error {
	if err := s.db.AutoMigrate(&RunRecord{}, &ActionRecord{}); err != nil {
		return fmt.Errorf("migrating history schema: %w", err)
	}
	return nil
}

// StartRun records the beginning of a remediation run.
// Safe to call on a nil store.
func (s *Store) StartRun(ctx context.Context, runID, targetDir string) error {
	if s == nil {
		return nil
	}
	rec := RunRecord{
		ID:        runID,
		TargetDir: targetDir,
		Status:    "in_progress",
		StartedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("recording run start: %w", err)
	}
	return nil
}

// FinishRun records the final state of a remediation run.
// Safe to call on a nil store.
func (s *Store) FinishRun(ctx context.Context, runID, status string, iterations int, pylintBefore, pylintAfter float64, testsPassed, testsFailed int) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC()
	updates := map[string]any{
		"status":        status,
		"iterations":    iterations,
		"pylint_before": pylintBefore,
		"pylint_after":  pylintAfter,
		"tests_passed":  testsPassed,
		"tests_failed":  testsFailed,
		"completed_at":  &now,
	}
	if err := s.db.WithContext(ctx).Model(&RunRecord{}).Where("id = ?", runID).Updates(updates).Error; err != nil {
		return fmt.Errorf("recording run finish: %w", err)
	}
	return nil
}

// RecordAction appends one agent action to the run's trail.
// Safe to call on a nil store; failures are logged, not returned,
// since the audit trail must never abort a run.
func (s *Store) RecordAction(ctx context.Context, a ActionRecord) {
	if s == nil {
		return
	}
	a.CreatedAt = time.Now().UTC()
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		s.logger.Warn("failed to record action",
			slog.String("run_id", a.RunID),
			slog.String("action", a.Action),
			slog.Any("error", err))
	}
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	if s == nil {
		return nil, nil
	}
	var runs []RunRecord
	if err := s.db.WithContext(ctx).Order("started_at desc").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// Actions returns all actions for a run in insertion order.
func (s *Store) Actions(ctx context.Context, runID string) ([]ActionRecord, error) {
	if s == nil {
		return nil, nil
	}
	var actions []ActionRecord
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("id asc").Find(&actions).Error; err != nil {
		return nil, fmt.Errorf("listing actions for run %s: %w", runID, err)
	}
	return actions, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// slogAdapter wraps *slog.Logger for GORM's logger.Writer interface.
type slogAdapter struct {
	logger *slog.Logger
}

func (s slogAdapter) Printf(format string, args ...any) {
	s.logger.Info(fmt.Sprintf(format, args...))
}
