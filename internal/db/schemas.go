package db

import "embed"

// sqlSchemas is an embedded file system containing the SQL migration files
// for the persistence façade's event and state tables. The migrations are
// embedded at compile time for portability.
//
//go:embed migrations/*.sql
var sqlSchemas embed.FS
