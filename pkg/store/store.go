// Package store publishes resolution results to PostgreSQL.
//
// Hosts run the resolution pass on every build; the store keeps the
// durable side of that loop: one row per run, the current fingerprint
// of every node, and the full diagnostic list of each run. Re-publishes
// with unchanged fingerprints are skipped, so the run history records
// actual changes rather than build noise.
//
// # Basic Usage
//
// Publish a result on top of an ensured schema:
//
//	s := store.New(db)
//	if err := s.EnsureSchema(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	report, err := s.Publish(ctx, res, store.PublishOptions{})
//
// For one-off publishing there is a package-level convenience:
//
//	report, err := store.Publish(ctx, db, res)
//
// # Skip Optimization
//
// Publish compares the result's fingerprints against the stored ones.
// When a previous run exists and nothing changed, no new run is
// recorded and the report carries Skipped=true with the previous run's
// id. Force in PublishOptions overrides the comparison.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/tessera-dev/tessera"
)

// ErrNotReady is returned when the tessera tables are missing. Run
// EnsureSchema once against the target database.
var ErrNotReady = errors.New("store: tessera tables missing")

// undefinedTable is the PostgreSQL SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// Store publishes resolution runs to one PostgreSQL database.
type Store struct {
	db     Querier
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger routes the store's log lines to the given logger. The
// default discards them.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a Store on top of an open database handle. The Querier
// is typically *sql.DB but can be *sql.Tx for testing.
func New(db Querier, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PublishOptions controls publish behavior.
type PublishOptions struct {
	// Force records a run even when no fingerprint changed. Use when
	// rebuilding history or testing.
	Force bool
}

// PublishReport describes what one Publish call did.
type PublishReport struct {
	// RunID is the recorded run, or the previous run when skipped.
	RunID uuid.UUID

	// Skipped is true when no fingerprint changed and no run was
	// recorded.
	Skipped bool

	// Changed lists the identities whose fingerprint differs from the
	// stored state, sorted. Includes added and removed nodes.
	Changed []string
}

// RunRecord is one row of run history.
type RunRecord struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Nodes     int
	Errors    int
	Warnings  int
	Infos     int
	Changed   []string
}

// Status describes the current state of the store.
type Status struct {
	// SchemaReady indicates the tessera tables exist.
	SchemaReady bool

	// Nodes is the number of tracked node fingerprints.
	Nodes int

	// LastRun is the most recent run, or nil if none was recorded.
	LastRun *RunRecord
}

// Publish records one resolution run: a run row, the diagnostics, and
// the fingerprint upserts for changed nodes. Everything applies in one
// transaction when the handle supports it.
//
// Returns ErrNotReady (wrapped) when the tables are missing.
func (s *Store) Publish(ctx context.Context, res *tessera.Result, opts PublishOptions) (*PublishReport, error) {
	prev, err := s.loadFingerprints(ctx, s.db)
	if err != nil {
		return nil, err
	}
	changed := tessera.Delta(prev, res.Fingerprints)

	last, err := s.lastRun(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if !opts.Force && shouldSkipPublish(last, changed) {
		s.logger.DebugContext(ctx, "publish skipped, fingerprints unchanged",
			"nodes", len(prev), "run", last.ID)
		return &PublishReport{RunID: last.ID, Skipped: true, Changed: nil}, nil
	}

	runID := uuid.New()

	if txer, ok := s.db.(interface {
		BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	}); ok {
		tx, err := txer.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("starting transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if err := s.record(ctx, tx, runID, res, changed); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("committing run: %w", err)
		}
	} else {
		if err := s.record(ctx, s.db, runID, res, changed); err != nil {
			return nil, err
		}
	}

	s.logger.InfoContext(ctx, "published resolution run",
		"run", runID, "nodes", len(res.Fingerprints), "changed", len(changed),
		"diagnostics", len(res.Diagnostics))

	return &PublishReport{RunID: runID, Changed: changed}, nil
}

// record writes the run row, the diagnostics, and the fingerprint
// changes through one Querier (a transaction when available).
func (s *Store) record(ctx context.Context, db Querier, runID uuid.UUID, res *tessera.Result, changed []string) error {
	errs, warns, infos := severityCounts(res.Diagnostics)

	if changed == nil {
		changed = []string{} // pq encodes a nil slice as NULL
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO tessera_runs (id, node_count, error_count, warning_count, info_count, changed)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, runID, len(res.Fingerprints), errs, warns, infos, pq.Array(changed))
	if err != nil {
		return mapError(fmt.Errorf("inserting run: %w", err))
	}

	for i, d := range res.Diagnostics {
		_, err := db.ExecContext(ctx, `
			INSERT INTO tessera_diagnostics (run_id, position, code, severity, node, message)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, runID, i, string(d.Code), string(d.Severity), d.Node, d.Message)
		if err != nil {
			return mapError(fmt.Errorf("inserting diagnostic %d: %w", i, err))
		}
	}

	for _, name := range changed {
		fp, ok := res.Fingerprints[name]
		if !ok {
			if _, err := db.ExecContext(ctx,
				`DELETE FROM tessera_nodes WHERE name = $1`, name); err != nil {
				return mapError(fmt.Errorf("deleting node %s: %w", name, err))
			}
			continue
		}
		_, err := db.ExecContext(ctx, `
			INSERT INTO tessera_nodes (name, fingerprint, run_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO UPDATE
			SET fingerprint = EXCLUDED.fingerprint, run_id = EXCLUDED.run_id, updated_at = now()
		`, name, fp, runID)
		if err != nil {
			return mapError(fmt.Errorf("upserting node %s: %w", name, err))
		}
	}

	return nil
}

// Status returns the current store state. A database without the
// tessera tables reports SchemaReady=false instead of an error.
func (s *Store) Status(ctx context.Context) (*Status, error) {
	ready, err := s.schemaReady(ctx)
	if err != nil {
		return nil, err
	}
	status := &Status{SchemaReady: ready}
	if !ready {
		return status, nil
	}

	err = s.db.QueryRowContext(ctx, `SELECT count(*) FROM tessera_nodes`).Scan(&status.Nodes)
	if err != nil {
		return nil, mapError(fmt.Errorf("counting nodes: %w", err))
	}

	status.LastRun, err = s.lastRun(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return status, nil
}

// Diagnostics returns the stored diagnostics of one run in their
// recorded order.
func (s *Store) Diagnostics(ctx context.Context, runID uuid.UUID) ([]tessera.Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, severity, node, message
		FROM tessera_diagnostics
		WHERE run_id = $1
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, mapError(fmt.Errorf("querying diagnostics: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var diags []tessera.Diagnostic
	for rows.Next() {
		var d tessera.Diagnostic
		var code, severity string
		if err := rows.Scan(&code, &severity, &d.Node, &d.Message); err != nil {
			return nil, fmt.Errorf("scanning diagnostic: %w", err)
		}
		d.Code = tessera.Code(code)
		d.Severity = tessera.Severity(severity)
		diags = append(diags, d)
	}
	return diags, rows.Err()
}

// EnsureSchema applies the run tracking DDL. Idempotent, safe to run
// on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, SchemaSQL); err != nil {
		return fmt.Errorf("applying store DDL: %w", err)
	}
	return nil
}

// Publish records one resolution run using a fresh Store with default
// options. The recommended call for hosts that publish once per build.
func Publish(ctx context.Context, db Querier, res *tessera.Result) (*PublishReport, error) {
	return New(db).Publish(ctx, res, PublishOptions{})
}

// schemaReady reports whether the tessera_runs table exists in the
// current schema.
func (s *Store) schemaReady(ctx context.Context) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pg_class c
			JOIN pg_namespace n ON n.oid = c.relnamespace
			WHERE c.relname = 'tessera_runs'
			AND n.nspname = current_schema()
		)
	`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking tessera_runs: %w", err)
	}
	return exists, nil
}

// loadFingerprints returns the stored fingerprint per node identity.
func (s *Store) loadFingerprints(ctx context.Context, db Querier) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name, fingerprint FROM tessera_nodes`)
	if err != nil {
		return nil, mapError(fmt.Errorf("querying fingerprints: %w", err))
	}
	defer func() { _ = rows.Close() }()

	fps := make(map[string]string)
	for rows.Next() {
		var name, fp string
		if err := rows.Scan(&name, &fp); err != nil {
			return nil, fmt.Errorf("scanning fingerprint: %w", err)
		}
		fps[name] = fp
	}
	return fps, rows.Err()
}

// lastRun returns the most recent run record, or nil if none exists.
func (s *Store) lastRun(ctx context.Context, db Querier) (*RunRecord, error) {
	var rec RunRecord
	err := db.QueryRowContext(ctx, `
		SELECT id, created_at, node_count, error_count, warning_count, info_count, changed
		FROM tessera_runs
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`).Scan(&rec.ID, &rec.CreatedAt, &rec.Nodes, &rec.Errors, &rec.Warnings, &rec.Infos, pq.Array(&rec.Changed))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(fmt.Errorf("querying last run: %w", err))
	}
	return &rec, nil
}

// shouldSkipPublish returns true when a previous run exists and no
// fingerprint changed since it.
func shouldSkipPublish(last *RunRecord, changed []string) bool {
	return last != nil && len(changed) == 0
}

// severityCounts tallies diagnostics per severity.
func severityCounts(diags []tessera.Diagnostic) (errs, warns, infos int) {
	for _, d := range diags {
		switch d.Severity {
		case tessera.SeverityError:
			errs++
		case tessera.SeverityWarning:
			warns++
		case tessera.SeverityInfo:
			infos++
		}
	}
	return errs, warns, infos
}

// mapError translates the undefined-table SQLSTATE into ErrNotReady so
// callers can distinguish a missing schema from a real failure. Both
// the pgx and lib/pq drivers are recognized.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
		return fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == undefinedTable {
		return fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	return err
}
