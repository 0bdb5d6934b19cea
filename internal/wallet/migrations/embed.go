// Package migrations embeds the wallet service schema.
package migrations

import "embed"

//go:embed migrations/*.sql
var Files embed.FS
