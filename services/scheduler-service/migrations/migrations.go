// Package migrations embeds the scheduler-service schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
