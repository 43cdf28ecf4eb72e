// Package migrations embeds the SQL schema applied at startup.
package migrations

import "embed"

// FS holds the *.up.sql files in version order.
//
//go:embed *.up.sql
var FS embed.FS
