// Package db holds the SQL migrations, in goose format.
package db

import "embed"

// Migrations contains every file under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS
