// Package database handles database connections and schema inspection.
//
// It wraps GORM to open one of three engines behind the same *gorm.DB:
//   - sqlite: embedded single-file engine, one open connection, single owner
//   - mysql: networked engine with a bounded connection pool
//   - postgres: networked engine (pgx) with a bounded connection pool
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns let the link store verify that the
// schema it created (or found) carries the expected columns.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "links", []string{"platform_id", "game_id"})
package database
