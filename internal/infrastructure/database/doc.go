// Package database provides SQLite connectivity for the relay cycle controller.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Embedded, versioned schema migrations
//   - Transaction helpers used by repositories
//
// All queries use parameterised statements. The database file is restricted
// to 0600.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql, and are registered by the migrations package.
package database
