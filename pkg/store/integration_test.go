package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tessera-dev/tessera"
)

// Singleton container state shared by all integration tests.
var (
	singletonOnce sync.Once
	singletonDSN  string
	singletonErr  error
)

// ensureSingleton lazily starts the shared PostgreSQL container.
func ensureSingleton() (string, error) {
	singletonOnce.Do(func() {
		ctx := context.Background()

		container, err := postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("postgres"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			singletonErr = fmt.Errorf("failed to start PostgreSQL container: %w", err)
			return
		}

		dsn, err := container.ConnectionString(ctx)
		if err != nil {
			_ = container.Terminate(ctx)
			singletonErr = fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
			return
		}

		singletonDSN = dsn + "sslmode=disable"
		// Container is not stored - ryuk will handle cleanup automatically
	})

	return singletonDSN, singletonErr
}

// testDB returns a connection to a fresh isolated database.
func testDB(tb testing.TB) *sql.DB {
	tb.Helper()
	if testing.Short() {
		tb.Skip("skipping store integration test in short mode")
	}

	adminDSN, err := ensureSingleton()
	require.NoError(tb, err, "failed to start PostgreSQL container")

	b := make([]byte, 8)
	_, _ = rand.Read(b)
	dbName := "store_" + hex.EncodeToString(b)

	admin, err := sql.Open("pgx", adminDSN)
	require.NoError(tb, err)
	_, err = admin.Exec("CREATE DATABASE " + dbName)
	require.NoError(tb, err, "failed to create test database")
	require.NoError(tb, admin.Close())

	db, err := sql.Open("pgx", replaceDBName(adminDSN, dbName))
	require.NoError(tb, err, "failed to connect to test database")
	require.NoError(tb, db.Ping())

	tb.Cleanup(func() {
		_ = db.Close()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			admin, err := sql.Open("pgx", adminDSN)
			if err != nil {
				return
			}
			defer func() { _ = admin.Close() }()
			_, _ = admin.ExecContext(ctx, "DROP DATABASE IF EXISTS "+dbName)
		}()
	})

	return db
}

// replaceDBName replaces the database name in a PostgreSQL DSN.
func replaceDBName(dsn, newDB string) string {
	for i := len(dsn) - 1; i >= 0; i-- {
		if dsn[i] == '/' {
			rest := ""
			for j := i + 1; j < len(dsn); j++ {
				if dsn[j] == '?' {
					rest = dsn[j:]
					break
				}
			}
			return dsn[:i+1] + newDB + rest
		}
	}
	return dsn
}

func resolveNodes(tb testing.TB, nodes ...tessera.Node) *tessera.Result {
	tb.Helper()
	g, err := tessera.NewGraph(nodes)
	require.NoError(tb, err)
	res, err := tessera.Resolve(context.Background(), g)
	require.NoError(tb, err)
	return res
}

func demoNodes() []tessera.Node {
	return []tessera.Node{
		{Name: "demo/Vec2", Kind: tessera.KindStruct, Fields: []tessera.Field{{Name: "X", Type: "float32"}, {Name: "Y", Type: "float32"}}},
		{Name: "demo/Position", Kind: tessera.KindStruct,
			Markers: []tessera.Marker{tessera.MarkerComponent},
			Edges:   []tessera.Edge{{Kind: tessera.EdgeCompose, Target: "demo/Vec2"}}},
		{Name: "demo/Health", Kind: tessera.KindStruct,
			Markers: []tessera.Marker{tessera.MarkerComponent},
			Fields:  []tessera.Field{{Name: "Points", Type: "int"}}},
	}
}

func TestIntegration_PublishRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	s := New(db)

	require.NoError(t, s.EnsureSchema(ctx))

	res := resolveNodes(t, demoNodes()...)
	report, err := s.Publish(ctx, res, PublishOptions{})
	require.NoError(t, err)
	require.False(t, report.Skipped)
	require.Len(t, report.Changed, 3, "first publish changes every node")

	status, err := s.Status(ctx)
	require.NoError(t, err)
	require.True(t, status.SchemaReady)
	require.Equal(t, 3, status.Nodes)
	require.NotNil(t, status.LastRun)
	require.Equal(t, report.RunID, status.LastRun.ID)
	require.Equal(t, 3, status.LastRun.Nodes)
	require.Equal(t, 0, status.LastRun.Errors)
	require.ElementsMatch(t, report.Changed, status.LastRun.Changed)
}

func TestIntegration_PublishStoresDiagnostics(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	s := New(db)

	require.NoError(t, s.EnsureSchema(ctx))

	// One structural error: a component requiring itself.
	res := resolveNodes(t, tessera.Node{
		Name:    "demo/Broken",
		Kind:    tessera.KindStruct,
		Markers: []tessera.Marker{tessera.MarkerComponent},
		Edges:   []tessera.Edge{{Kind: tessera.EdgeRequire, Target: "demo/Broken"}},
	})
	require.True(t, res.HasErrors())

	report, err := s.Publish(ctx, res, PublishOptions{})
	require.NoError(t, err)

	stored, err := s.Diagnostics(ctx, report.RunID)
	require.NoError(t, err)
	require.Len(t, stored, len(res.Diagnostics))
	for i, d := range res.Diagnostics {
		require.Equal(t, d.Code, stored[i].Code)
		require.Equal(t, d.Severity, stored[i].Severity)
		require.Equal(t, d.Node, stored[i].Node)
		require.Equal(t, d.Message, stored[i].Message)
	}

	status, err := s.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, status.LastRun.Errors)
}

func TestIntegration_PublishSkipsUnchanged(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	s := New(db)

	require.NoError(t, s.EnsureSchema(ctx))
	res := resolveNodes(t, demoNodes()...)

	first, err := s.Publish(ctx, res, PublishOptions{})
	require.NoError(t, err)
	require.False(t, first.Skipped)

	second, err := s.Publish(ctx, res, PublishOptions{})
	require.NoError(t, err)
	require.True(t, second.Skipped, "unchanged republish must skip")
	require.Equal(t, first.RunID, second.RunID)

	forced, err := s.Publish(ctx, res, PublishOptions{Force: true})
	require.NoError(t, err)
	require.False(t, forced.Skipped)
	require.NotEqual(t, first.RunID, forced.RunID)
}

func TestIntegration_PublishTracksChanges(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	s := New(db)

	require.NoError(t, s.EnsureSchema(ctx))

	_, err := s.Publish(ctx, resolveNodes(t, demoNodes()...), PublishOptions{})
	require.NoError(t, err)

	// Edit demo/Vec2 and drop demo/Health: the edit must reach the
	// composing node, and the removal must come back as a change too.
	edited := []tessera.Node{
		{Name: "demo/Vec2", Kind: tessera.KindStruct, Fields: []tessera.Field{{Name: "X", Type: "float64"}, {Name: "Y", Type: "float64"}}},
		{Name: "demo/Position", Kind: tessera.KindStruct,
			Markers: []tessera.Marker{tessera.MarkerComponent},
			Edges:   []tessera.Edge{{Kind: tessera.EdgeCompose, Target: "demo/Vec2"}}},
	}
	report, err := s.Publish(ctx, resolveNodes(t, edited...), PublishOptions{})
	require.NoError(t, err)
	require.False(t, report.Skipped)
	require.Equal(t, []string{"demo/Health", "demo/Position", "demo/Vec2"}, report.Changed)

	status, err := s.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, status.Nodes, "removed node must leave the fingerprint table")
}

func TestIntegration_PublishWithoutSchema(t *testing.T) {
	db := testDB(t)
	s := New(db)

	_, err := s.Publish(context.Background(), resolveNodes(t, demoNodes()...), PublishOptions{})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNotReady), "err = %v, want ErrNotReady", err)
}

func TestIntegration_StatusWithoutSchema(t *testing.T) {
	db := testDB(t)

	status, err := New(db).Status(context.Background())
	require.NoError(t, err)
	require.False(t, status.SchemaReady)
	require.Nil(t, status.LastRun)
}

func TestIntegration_EnsureSchemaIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	s := New(db)

	require.NoError(t, s.EnsureSchema(ctx))
	require.NoError(t, s.EnsureSchema(ctx))
}
