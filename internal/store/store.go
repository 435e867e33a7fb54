// Package store persists replay runs and their orientation estimates in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/num/quat"
	_ "modernc.org/sqlite"

	"github.com/knei-knurow/madgwick/internal/samples"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// Run describes one replay of a sample stream through a filter.
type Run struct {
	ID            string
	CreatedAt     time.Time
	Source        string // where the samples came from, e.g. a file path
	Beta          float64
	DeltaT        float64
	UseTimestamps bool
	Samples       int
	Skipped       int
}

type Store struct {
	*sql.DB
}

// Open opens (creating if needed) the database at path and applies any
// pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// MigrateUp runs all pending migrations up to the latest version.
func (s *Store) MigrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	// Note: m is not closed because that would close the underlying DB connection.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the current migration version and dirty state.
// Returns 0, false, nil if no migrations have been applied yet.
func (s *Store) MigrateVersion() (version uint, dirty bool, err error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}

	version, dirty, err = m.Version()
	if err != nil && errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(s.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// CreateRun records the start of a replay and returns it with a fresh ID.
func (s *Store) CreateRun(ctx context.Context, source string, beta, deltat float64, useTimestamps bool) (Run, error) {
	run := Run{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Source:        source,
		Beta:          beta,
		DeltaT:        deltat,
		UseTimestamps: useTimestamps,
	}

	_, err := s.ExecContext(ctx, `
		INSERT INTO runs (run_id, created_unix_nano, source, beta, deltat, use_timestamps)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UnixNano(), run.Source, run.Beta, run.DeltaT, run.UseTimestamps,
	)
	if err != nil {
		return Run{}, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// FinishRun stores the final sample counts of a run.
func (s *Store) FinishRun(ctx context.Context, runID string, total, skipped int) error {
	res, err := s.ExecContext(ctx, `UPDATE runs SET samples = ?, skipped = ? WHERE run_id = ?`, total, skipped, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// RecordEstimates appends estimates to a run in one transaction.
func (s *Store) RecordEstimates(ctx context.Context, runID string, estimates []samples.Estimate) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE run_id = ?`, runID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to look up run %s: %w", runID, err)
	}
	if exists == 0 {
		return fmt.Errorf("record estimates for %s: %w", runID, ErrRunNotFound)
	}

	var next int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq) + 1, 0) FROM estimates WHERE run_id = ?`, runID).Scan(&next); err != nil {
		return fmt.Errorf("failed to read last sequence number: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO estimates (run_id, seq, t, w, x, y, z, yaw, pitch, roll, skipped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range estimates {
		if _, err := stmt.ExecContext(ctx,
			runID, next+int64(i), e.T,
			e.Q.Real, e.Q.Imag, e.Q.Jmag, e.Q.Kmag,
			e.Yaw, e.Pitch, e.Roll, e.Skipped,
		); err != nil {
			return fmt.Errorf("failed to insert estimate %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit estimates: %w", err)
	}
	return nil
}

// Estimates returns all estimates of a run in recording order.
func (s *Store) Estimates(ctx context.Context, runID string) ([]samples.Estimate, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT t, w, x, y, z, yaw, pitch, roll, skipped
		FROM estimates WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query estimates: %w", err)
	}
	defer rows.Close()

	var out []samples.Estimate
	for rows.Next() {
		var (
			e samples.Estimate
			q quat.Number
		)
		if err := rows.Scan(&e.T, &q.Real, &q.Imag, &q.Jmag, &q.Kmag, &e.Yaw, &e.Pitch, &e.Roll, &e.Skipped); err != nil {
			return nil, fmt.Errorf("failed to scan estimate: %w", err)
		}
		e.Q = q
		out = append(out, e)
	}
	return out, rows.Err()
}

// Runs returns all runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT run_id, created_unix_nano, source, beta, deltat, use_timestamps, samples, skipped
		FROM runs ORDER BY created_unix_nano DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r       Run
			created int64
		)
		if err := rows.Scan(&r.ID, &created, &r.Source, &r.Beta, &r.DeltaT, &r.UseTimestamps, &r.Samples, &r.Skipped); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and its estimates.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM estimates WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to delete estimates: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete run %s: %w", runID, ErrRunNotFound)
	}
	return tx.Commit()
}
