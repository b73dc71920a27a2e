// Package database provides the GORM connection used by the memory
// repositories, with connection retry, pooling, health checks,
// transactions and embedded schema migrations.
//
// Two drivers are supported: "sqlite" (the default, a local file) and
// "postgres" (pgx). The schema is owned by the migration subpackage; GORM
// auto-migration is not used.
//
//	comp := database.NewComponent(database.Config{Enabled: true, AutoMigrate: true}, log)
//	if err := comp.Start(ctx); err != nil { ... }
//	db := comp.DB()
//
// # Subpackages
//
//   - migration: versioned SQL migrations embedded in the binary
//   - testutil: in-memory SQLite databases for tests
package database
