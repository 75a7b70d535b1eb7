// Package main provides the tessera CLI for resolving composition graphs.
//
// The CLI supports:
//   - check: Decode a snapshot and run the resolution pass
//   - resolve: Run the pass and write the resolved artifacts
//   - publish: Record fingerprints and diagnostics in PostgreSQL
//   - status: Show the published state of the database
//
// This tool is typically run after an export step has written a
// snapshot of the declared graph, during development and in CI, to keep
// generated artifacts and the database in sync with the declarations.
//
// Usage:
//
//	tessera [flags] <command>
//
// Commands that require database access (publish, status) need --db or
// a configured database. Commands that only work with files (check,
// resolve) do not need database access.
package main

func main() {
	Execute()
}
