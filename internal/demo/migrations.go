package demo

import "embed"

// Migrations holds the goose migrations of the demo schema under the
// "migrations" directory.
//
//go:embed migrations/*.sql
var Migrations embed.FS
