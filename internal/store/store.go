// Package store records segmentation runs in SQLite.
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
	_ "modernc.org/sqlite"

	"disf-superpixels/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	ErrNotFound = errors.New("store: run not found")
	ErrNoPath   = errors.New("store: database path is required")
)

const busyTimeoutMS = 5000

type Store struct {
	db *sql.DB
}

// Open migrates the database at path to the latest schema and returns a
// store backed by it.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, ErrNoPath
	}

	// the migrator closes the connection it is handed
	migrationDB, err := connect(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := migrateUp(migrationDB); err != nil {
		return nil, err
	}

	db, err := connect(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func connect(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []struct {
		name  string
		query string
	}{
		{"journal_mode", "PRAGMA journal_mode=WAL"},
		{"busy_timeout", fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMS)},
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p.query); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set %s pragma: %w", p.name, err)
		}
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{DatabaseName: "main"})
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) InsertRun(ctx context.Context, run *models.Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, source, engine, initial_seeds, final_superpixels, effective_seeds,
			superpixels, iterations, width, height, output_dir, status, error, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Engine, run.InitSeeds, run.FinalSuperpixels, run.EffectiveSeeds,
		run.Superpixels, run.Iterations, run.Width, run.Height, run.OutputDir, string(run.Status),
		run.Error, run.StartedAt.UnixNano(), run.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	return nil
}

const selectRun = `
	SELECT id, source, engine, initial_seeds, final_superpixels, effective_seeds,
		superpixels, iterations, width, height, output_dir, status, error, started_at, duration_ms
	FROM runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.Run, error) {
	var (
		run        models.Run
		status     string
		startedAt  int64
		durationMS int64
	)
	err := row.Scan(&run.ID, &run.Source, &run.Engine, &run.InitSeeds, &run.FinalSuperpixels,
		&run.EffectiveSeeds, &run.Superpixels, &run.Iterations, &run.Width, &run.Height,
		&run.OutputDir, &status, &run.Error, &startedAt, &durationMS)
	if err != nil {
		return nil, err
	}
	run.Status = models.RunStatus(status)
	run.StartedAt = time.Unix(0, startedAt)
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return &run, nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*models.Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, selectRun+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	query := selectRun + ` ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
