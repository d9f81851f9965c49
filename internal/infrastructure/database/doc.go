// Package database provides SQLite connectivity for plantbridge.
//
// This package manages:
//   - Database connection with WAL mode and foreign keys enabled
//   - Additive schema migrations embedded in the binary
//   - Connection lifecycle and health checks
//
// Repositories in the sensor and reading packages take the embedded *sql.DB
// and run their own parameterised queries; this package never builds SQL
// from message content.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
