// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ledger records prepared runs in a SQLite database so runs can be
// listed, inspected and matched by configuration fingerprint.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/advexp/internal/config"
	"github.com/ManuGH/advexp/internal/log"
	"github.com/ManuGH/advexp/internal/rundir"
)

const schemaVersion = 1

// createdLayout is fixed width so created_at sorts lexically.
const createdLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned by Get for unknown run IDs.
var ErrNotFound = errors.New("run not found")

// Entry is one recorded run.
type Entry struct {
	ID              string    `json:"id"`
	JobName         string    `json:"job_name"`
	Dataset         string    `json:"dataset"`
	Classifier      string    `json:"classifier"`
	Epsilon         string    `json:"epsilon"`
	Seed            int       `json:"seed"`
	ConfigHash      string    `json:"config_hash"`
	Dir             string    `json:"dir"`
	DataDir         string    `json:"data_dir"`
	Checkpoint      string    `json:"checkpoint"`
	LogFile         string    `json:"log_file,omitempty"`
	DeviceRequested string    `json:"device_requested"`
	DeviceEffective string    `json:"device_effective"`
	Overrides       []string  `json:"overrides"`
	CreatedAt       time.Time `json:"created_at"`
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Dataset    string
	Classifier string
	Limit      int
}

// Store is the SQLite-backed run ledger.
type Store struct {
	DB   *sql.DB
	path string
}

// Open opens (creating if needed) the ledger at path and migrates its schema.
func Open(path string, cfg Config) (*Store, error) {
	db, err := openDB(path, cfg)
	if err != nil {
		return nil, err
	}

	s := &Store{DB: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger: migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	var currentVersion int
	if err := s.DB.QueryRow("PRAGMA user_version").Scan(&currentVersion); err != nil {
		return err
	}
	if currentVersion >= schemaVersion {
		return nil
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		job_name TEXT NOT NULL,
		dataset TEXT NOT NULL,
		classifier TEXT NOT NULL,
		epsilon TEXT NOT NULL,
		seed INTEGER NOT NULL,
		config_hash TEXT NOT NULL,
		run_dir TEXT NOT NULL,
		data_dir TEXT NOT NULL,
		checkpoint TEXT NOT NULL,
		log_file TEXT NOT NULL DEFAULT '',
		device_requested TEXT NOT NULL,
		device_effective TEXT NOT NULL,
		overrides TEXT NOT NULL DEFAULT '',
		config_yaml TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_hash ON runs(config_hash);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Record stores a prepared run together with its effective experiment.
func (s *Store) Record(ctx context.Context, run rundir.Run, exp config.Experiment) error {
	snapshot, err := config.MarshalYAML(exp)
	if err != nil {
		return fmt.Errorf("encode experiment: %w", err)
	}
	query := `
	INSERT INTO runs (id, job_name, dataset, classifier, epsilon, seed, config_hash, run_dir, data_dir,
		checkpoint, log_file, device_requested, device_effective, overrides, config_yaml, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.DB.ExecContext(ctx, query,
		run.ID, run.JobName, exp.Dataset, exp.ClassifierName, exp.Epsilon.Expr, exp.Seed, run.ConfigHash,
		run.Dir, run.DataDir, run.Checkpoint, run.LogFile, run.Device.Requested, run.Device.Effective,
		strings.Join(run.Overrides, "\n"), string(snapshot), run.Created.UTC().Format(createdLayout),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}

	logger := log.WithComponentFromContext(ctx, "ledger")
	logger.Debug().
		Str(log.FieldEvent, "ledger.recorded").
		Str(log.FieldPath, s.path).
		Str(log.FieldConfigHash, run.ConfigHash).
		Msg("run recorded")
	return nil
}

const selectColumns = `SELECT id, job_name, dataset, classifier, epsilon, seed, config_hash, run_dir, data_dir,
	checkpoint, log_file, device_requested, device_effective, overrides, created_at FROM runs`

// Get returns the run with the given ID.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	row := s.DB.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

// Experiment returns the effective experiment recorded with a run.
func (s *Store) Experiment(ctx context.Context, id string) ([]byte, error) {
	var doc string
	err := s.DB.QueryRowContext(ctx, `SELECT config_yaml FROM runs WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return []byte(doc), nil
}

// List returns recorded runs, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.Dataset != "" {
		where = append(where, "dataset = ?")
		args = append(args, f.Dataset)
	}
	if f.Classifier != "" {
		where = append(where, "classifier = ?")
		args = append(args, f.Classifier)
	}
	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return s.query(ctx, query, args...)
}

// FindByHash returns the runs prepared from an identical effective experiment,
// oldest first.
func (s *Store) FindByHash(ctx context.Context, hash string) ([]Entry, error) {
	return s.query(ctx, selectColumns+` WHERE config_hash = ? ORDER BY created_at, id`, hash)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var (
		e         Entry
		overrides string
		created   string
	)
	err := sc.Scan(&e.ID, &e.JobName, &e.Dataset, &e.Classifier, &e.Epsilon, &e.Seed, &e.ConfigHash,
		&e.Dir, &e.DataDir, &e.Checkpoint, &e.LogFile, &e.DeviceRequested, &e.DeviceEffective,
		&overrides, &created)
	if err != nil {
		return Entry{}, err
	}
	if overrides != "" {
		e.Overrides = strings.Split(overrides, "\n")
	}
	e.CreatedAt, _ = time.Parse(createdLayout, created)
	return e, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}
