// Package migrations embeds the gateway's goose SQL migrations so the
// binary carries its own schema and never depends on a migrations
// directory being present on the deploy host.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
