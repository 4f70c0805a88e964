// Package migrations embeds the identity service schema migrations.
package migrations

import "embed"

// FS holds all .up.sql migration files, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
