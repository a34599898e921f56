// Package migrations carries the schema migration SQL, compiled into
// the binary so the store can self-migrate on open.
package migrations

import "embed"

// FS holds every versioned .sql file in this directory.
//
//go:embed *.sql
var FS embed.FS
