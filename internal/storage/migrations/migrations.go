// Package migrations embeds the goose SQL migrations for the chunk store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
