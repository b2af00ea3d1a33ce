package db

import "errors"

// Errors returned while connecting to or migrating the Postgres rate-limit store.
var (
	ErrEmptyConnectionURL   = errors.New("db: DATABASE_CONN_URL is empty")
	ErrInvalidConnectionURL = errors.New("db: DATABASE_CONN_URL is not a valid postgres URL")
	ErrUnreachable          = errors.New("db: rate-limit store unreachable")
	ErrHealthcheckFailed    = errors.New("db: rate-limit store ping failed")
	ErrMigrationFailed      = errors.New("db: rate-limit schema migration failed")
)
