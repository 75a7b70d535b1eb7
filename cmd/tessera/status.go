package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/tessera-dev/tessera/internal/cli"
	"github.com/tessera-dev/tessera/pkg/store"
)

var statusDB string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show published state",
	Long:  `Show the state of the store: schema readiness, tracked nodes, and the last recorded run.`,
	Example: `  # Check status
  tessera status --db postgres://localhost/mydb`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := resolveDSN(statusDB)
		if err != nil {
			return err
		}

		return runStatus(cmd.Context(), dsn)
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusDB, "db", "", "database URL")
}

func runStatus(ctx context.Context, dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return cli.DBConnectError("connecting to database", err)
	}
	defer func() { _ = db.Close() }()

	st := store.New(db)

	s, err := st.Status(ctx)
	if err != nil {
		return cli.GeneralError("getting status", err)
	}

	if s.SchemaReady {
		fmt.Println("Store schema:  ready")
	} else {
		fmt.Println("Store schema:  missing")
	}
	fmt.Printf("Tracked nodes: %d\n", s.Nodes)

	if s.LastRun != nil {
		r := s.LastRun
		fmt.Printf("Last run:      %s\n", r.ID)
		fmt.Printf("  recorded:    %s\n", r.CreatedAt.Format(time.RFC3339))
		fmt.Printf("  nodes:       %d\n", r.Nodes)
		fmt.Printf("  diagnostics: %d errors, %d warnings, %d infos\n", r.Errors, r.Warnings, r.Infos)
		if len(r.Changed) > 0 {
			fmt.Printf("  changed:     %s\n", strings.Join(r.Changed, ", "))
		}
	} else {
		fmt.Println("Last run:      none")
	}

	if !s.SchemaReady {
		fmt.Println("\nStore tables not found.")
		fmt.Println("Run tessera publish to create them.")
	}

	return nil
}
