package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/tessera-dev/tessera"
)

func TestShouldSkipPublish(t *testing.T) {
	last := &RunRecord{}

	if shouldSkipPublish(nil, nil) {
		t.Error("skipped with no previous run; the first publish must record")
	}
	if shouldSkipPublish(nil, []string{"demo/A"}) {
		t.Error("skipped with no previous run and changes")
	}
	if shouldSkipPublish(last, []string{"demo/A"}) {
		t.Error("skipped with changed fingerprints")
	}
	if !shouldSkipPublish(last, nil) {
		t.Error("did not skip an unchanged republish")
	}
}

func TestSeverityCounts(t *testing.T) {
	errs, warns, infos := severityCounts([]tessera.Diagnostic{
		{Severity: tessera.SeverityError},
		{Severity: tessera.SeverityError},
		{Severity: tessera.SeverityWarning},
		{Severity: tessera.SeverityInfo},
	})
	if errs != 2 || warns != 1 || infos != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", errs, warns, infos)
	}

	errs, warns, infos = severityCounts(nil)
	if errs != 0 || warns != 0 || infos != 0 {
		t.Errorf("counts for nil = %d/%d/%d, want zeros", errs, warns, infos)
	}
}

func TestMapError(t *testing.T) {
	pgxMissing := fmt.Errorf("querying: %w", &pgconn.PgError{Code: undefinedTable})
	if !errors.Is(mapError(pgxMissing), ErrNotReady) {
		t.Error("pgx undefined-table error not mapped to ErrNotReady")
	}

	pqMissing := fmt.Errorf("querying: %w", &pq.Error{Code: pq.ErrorCode(undefinedTable)})
	if !errors.Is(mapError(pqMissing), ErrNotReady) {
		t.Error("lib/pq undefined-table error not mapped to ErrNotReady")
	}

	unrelated := errors.New("connection refused")
	if got := mapError(unrelated); got != unrelated {
		t.Errorf("mapError(%v) = %v, want the error unchanged", unrelated, got)
	}

	otherState := fmt.Errorf("querying: %w", &pgconn.PgError{Code: "23505"})
	if errors.Is(mapError(otherState), ErrNotReady) {
		t.Error("unrelated SQLSTATE mapped to ErrNotReady")
	}
}
