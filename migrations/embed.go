// Package migrations holds the versioned SQL schema applied by cmd/migrate
// and, when enabled, by the server at startup.
package migrations

import "embed"

// FS contains every *.up.sql and *.down.sql file of this directory
//
//go:embed *.sql
var FS embed.FS
