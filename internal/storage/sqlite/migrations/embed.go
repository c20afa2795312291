// Package migrations contains embedded SQLite migrations for versus storage.
package migrations

import "embed"

// FS contains embedded SQLite migrations for versus storage.
//
//go:embed *.sql
var FS embed.FS
