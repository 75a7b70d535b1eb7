package store

import (
	_ "embed"
)

// SchemaSQL contains the tessera run tracking tables: runs, current
// node fingerprints, and per-run diagnostics. Applied via CREATE TABLE
// IF NOT EXISTS for idempotence.
//
// The SQL is embedded at compile time, so the binary carries its own
// schema and needs no external SQL files at runtime.
//
//go:embed schema.sql
var SchemaSQL string
