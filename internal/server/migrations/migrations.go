// Package migrations embeds the Postgres schema of the order store.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
