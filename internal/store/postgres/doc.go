// Package postgres stores sensors and readings in PostgreSQL through GORM.
//
// It is the alternative to the SQLite store for deployments that already
// run a shared Postgres instance. The repositories satisfy
// sensor.Repository and reading.Repository, so the ingestion pipeline is
// unaware of which backend it writes to.
//
// Raw payloads are kept as json rather than jsonb so the stored text is
// byte-for-byte the message as received. The schema is created with
// AutoMigrate and, like the SQLite migrations, only ever grows.
//
// Usage:
//
//	store, err := postgres.Open(ctx, cfg.Database.DSN)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	resolver := sensor.NewResolver(store.Sensors(), cfg.Ingest.FallbackOwnerID)
//	writer := reading.NewWriter(store.Readings())
package postgres
