package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/tessera-dev/tessera"
	"github.com/tessera-dev/tessera/internal/cli"
)

var (
	resolveSnapshot string
	resolveOut      string
	resolveFormat   string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a snapshot into artifacts",
	Long: `Run the resolution pass and write the resolved artifacts.

The output carries every closure, aggregate layout, and fingerprint the
pass produced, plus the diagnostics. Nodes with errors contribute no
artifacts.`,
	Example: `  # Print resolved artifacts as YAML
  tessera resolve --format yaml

  # Write JSON artifacts to a file
  tessera resolve --format json --out build/artifacts.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshotPath := resolveString(resolveSnapshot, cfg.Snapshot)
		if resolveFormat != "" {
			cfg.Output.Format = resolveFormat
		}
		if !cfg.ValidFormat() {
			return cli.ConfigError(fmt.Sprintf("invalid output format: %s (use text, json, or yaml)", cfg.Output.Format), nil)
		}
		format := cfg.Output.Format

		_, res, err := runPass(cmd.Context(), snapshotPath)
		if err != nil {
			return err
		}

		// JSON and YAML documents embed the diagnostics; printing them
		// as text too would corrupt a stdout stream being piped.
		if format == "text" || resolveOut != "" {
			printDiagnostics(os.Stdout, res)
		}

		out := io.Writer(os.Stdout)
		if resolveOut != "" {
			f, err := os.Create(resolveOut)
			if err != nil {
				return cli.GeneralError("creating output file", err)
			}
			defer func() { _ = f.Close() }()
			out = f
		}

		if err := writeResult(out, res, format); err != nil {
			return cli.GeneralError("encoding artifacts", err)
		}

		if !quiet && resolveOut != "" {
			fmt.Printf("Wrote %s artifacts to %s\n", format, resolveOut)
		}

		if res.HasErrors() {
			return cli.ResolutionError()
		}
		return nil
	},
}

func init() {
	f := resolveCmd.Flags()
	f.StringVar(&resolveSnapshot, "snapshot", "", "path to the snapshot file")
	f.StringVar(&resolveOut, "out", "", "write artifacts to this file instead of stdout")
	f.StringVar(&resolveFormat, "format", "", "output format: text, json, or yaml")
}

// writeResult encodes the result in the requested format.
func writeResult(w io.Writer, res *tessera.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml":
		out, err := yaml.Marshal(res)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		return writeResultText(w, res)
	}
}

// writeResultText renders the artifacts for humans. Closures and
// bundles keep declaration order; fingerprints are sorted by name.
func writeResultText(w io.Writer, res *tessera.Result) error {
	for _, c := range res.Closures {
		fmt.Fprintf(w, "closure %s (%d fields)\n", c.Node, len(c.Fields))
		for _, f := range c.Fields {
			fmt.Fprintf(w, "  %s %s (from %s)\n", f.Name, f.Type, f.Origin)
		}
	}

	for _, b := range res.Bundles {
		fmt.Fprintf(w, "bundle %s (%d members)\n", b.Node, len(b.Members))
		for _, m := range b.Members {
			fmt.Fprintf(w, "  %s: %s\n", m.Field, m.Component)
		}
	}

	names := make([]string, 0, len(res.Fingerprints))
	for name := range res.Fingerprints {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "fingerprint %s %s\n", name, res.Fingerprints[name])
	}

	return nil
}
