// Package migrations embeds the scheduler service schema.
package migrations

import "embed"

//go:embed migrations/*.sql
var Files embed.FS
