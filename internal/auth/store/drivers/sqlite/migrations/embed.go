package migrations

import "embed"

// Migrations holds the embedded SQL migration files. They are applied through
// golang-migrate's iofs source so the binary carries its own schema.
//
//go:embed *.sql
var Migrations embed.FS
