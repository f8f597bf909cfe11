// Package migrations embeds the goose SQL migrations for cartsync.
package migrations

import "embed"

//go:embed *.sql
var MigrationsFS embed.FS
