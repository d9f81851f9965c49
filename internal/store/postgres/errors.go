package postgres

import "errors"

// Domain errors for the postgres store.
var (
	// ErrNoDSN is returned by Open when no connection string is configured.
	ErrNoDSN = errors.New("postgres: dsn is required")

	// ErrConnectionFailed wraps failures to reach the server.
	ErrConnectionFailed = errors.New("postgres: connection failed")
)
