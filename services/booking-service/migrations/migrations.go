// Package migrations embeds the booking-service schema, applied at startup
// when MIGRATE_ON_START is set.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
