package store

import "embed"

// MigrationsDir is the directory of Migrations holding the schema files.
const MigrationsDir = "migrations"

// Migrations contains the golang-migrate schema files for the fridge_products table.
//
//go:embed migrations/*.sql
var Migrations embed.FS
