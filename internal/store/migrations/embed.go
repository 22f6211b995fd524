package migrations

import "embed"

// FS contains the embedded SQL schema migrations.
//
//go:embed *.sql
var FS embed.FS
