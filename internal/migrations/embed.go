// Package migrations embeds the versioned SQL schema applied by golang-migrate.
package migrations

import "embed"

// FS holds the *.up.sql / *.down.sql pairs under sql/.
//
//go:embed sql/*.sql
var FS embed.FS

// Dir is the directory inside FS containing the migration files.
const Dir = "sql"
