// filepath: internal/db/migrations/embed.go
package migrations

import "embed"

// FS embeds the SQL migrations, one directory per goose dialect.
//
//go:embed sqlite/*.sql mysql/*.sql postgres/*.sql
var FS embed.FS
