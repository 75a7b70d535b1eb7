package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/tessera-dev/tessera/internal/cli"
	"github.com/tessera-dev/tessera/pkg/store"
)

var (
	publishSnapshot string
	publishDB       string
	publishForce    bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a resolution run to the database",
	Long: `Resolve a snapshot and record the run in PostgreSQL: node
fingerprints, diagnostics, and the set of changed nodes.

When no fingerprint changed since the last recorded run the publish is
skipped. Runs with errors are still recorded; the diagnostics table is
how downstream tooling sees them.`,
	Example: `  # Publish to a database
  tessera publish --db postgres://localhost/mydb

  # Record a run even if no fingerprint changed
  tessera publish --db postgres://localhost/mydb --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshotPath := resolveString(publishSnapshot, cfg.Snapshot)
		force := resolveBool(publishForce, cfg.Publish.Force)

		dsn, err := resolveDSN(publishDB)
		if err != nil {
			return err
		}

		return runPublish(cmd.Context(), dsn, snapshotPath, force)
	},
}

func init() {
	f := publishCmd.Flags()
	f.StringVar(&publishDB, "db", "", "database URL")
	f.StringVar(&publishSnapshot, "snapshot", "", "path to the snapshot file")
	f.BoolVar(&publishForce, "force", false, "record a run even if no fingerprint changed")
}

// resolveDSN gets the database DSN from flag or config.
func resolveDSN(flagDSN string) (string, error) {
	if flagDSN != "" {
		return flagDSN, nil
	}

	dsn, err := cfg.DSN()
	if err != nil {
		return "", cli.ConfigError("database configuration", err)
	}
	if dsn == "" {
		return "", cli.ConfigError("database URL is required (use --db or set in config)", nil)
	}
	return dsn, nil
}

func runPublish(ctx context.Context, dsn, snapshotPath string, force bool) error {
	_, res, err := runPass(ctx, snapshotPath)
	if err != nil {
		return err
	}

	printDiagnostics(os.Stdout, res)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return cli.DBConnectError("connecting to database", err)
	}
	defer func() { _ = db.Close() }()

	var opts []store.Option
	if verbose > 0 {
		level := slog.LevelInfo
		if verbose > 1 {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		opts = append(opts, store.WithLogger(logger))
	}
	st := store.New(db, opts...)

	if err := st.EnsureSchema(ctx); err != nil {
		return cli.GeneralError("preparing store schema", err)
	}

	report, err := st.Publish(ctx, res, store.PublishOptions{Force: force})
	if err != nil {
		return cli.GeneralError("publishing run", err)
	}

	if !quiet {
		if report.Skipped {
			fmt.Println("No fingerprint changed, publish skipped.")
			fmt.Println("Use --force to record a run anyway.")
		} else {
			fmt.Printf("Published run %s (%d nodes changed).\n", report.RunID, len(report.Changed))
		}
	}

	return nil
}
