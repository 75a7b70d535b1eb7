package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tessera-dev/tessera"
	"github.com/tessera-dev/tessera/internal/cli"
	"github.com/tessera-dev/tessera/pkg/snapshot"
)

var checkSnapshot string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a snapshot",
	Long:  `Run the full resolution pass over a snapshot and report every diagnostic.`,
	Example: `  # Check a specific snapshot file
  tessera check --snapshot build/tessera-snapshot.yaml

  # Check using config file settings
  tessera check`,
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshotPath := resolveString(checkSnapshot, cfg.Snapshot)

		g, res, err := runPass(cmd.Context(), snapshotPath)
		if err != nil {
			return err
		}

		printDiagnostics(os.Stdout, res)

		if !quiet {
			errs, warns, infos := tally(res)
			fmt.Printf("Checked %d nodes: %d errors, %d warnings, %d infos\n",
				len(g.Nodes), errs, warns, infos)
		}

		if res.HasErrors() {
			return cli.ResolutionError()
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkSnapshot, "snapshot", "", "path to the snapshot file")
}

// runPass loads the snapshot at path, builds the graph, and runs the
// resolution pass. Shared by check, resolve, and publish.
func runPass(ctx context.Context, path string) (*tessera.Graph, *tessera.Result, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil, cli.SnapshotParseError(fmt.Sprintf("snapshot not found: %s", path), nil)
	}

	nodes, err := snapshot.Load(path)
	if err != nil {
		return nil, nil, cli.SnapshotParseError("decoding snapshot", err)
	}

	g, err := tessera.NewGraph(nodes)
	if err != nil {
		return nil, nil, cli.SnapshotParseError("building graph", err)
	}

	res, err := tessera.Resolve(ctx, g)
	if err != nil {
		return nil, nil, cli.GeneralError("resolution interrupted", err)
	}

	return g, res, nil
}

// printDiagnostics writes the diagnostics grouped by severity. Quiet
// mode restricts the output to errors and drops the group headers.
func printDiagnostics(w io.Writer, res *tessera.Result) {
	groups := []struct {
		severity tessera.Severity
		title    string
	}{
		{tessera.SeverityError, "Errors:"},
		{tessera.SeverityWarning, "Warnings:"},
		{tessera.SeverityInfo, "Info:"},
	}

	for _, grp := range groups {
		if quiet && grp.severity != tessera.SeverityError {
			continue
		}

		printed := false
		for _, d := range res.Diagnostics {
			if d.Severity != grp.severity {
				continue
			}
			if !printed && !quiet {
				fmt.Fprintln(w, grp.title)
			}
			printed = true
			fmt.Fprintf(w, "  %s\n", d)
		}
		if printed && !quiet {
			fmt.Fprintln(w)
		}
	}
}

func tally(res *tessera.Result) (errs, warns, infos int) {
	for _, d := range res.Diagnostics {
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
