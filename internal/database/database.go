// Package database centralises sqlx connection helpers for the legacy
// Postgres source.  The driver is lib/pq; nothing in the pipeline writes
// through these pools, so sizes stay small.
//
// Both helpers Ping before returning so a bad DSN fails during bootstrap
// rather than mid-extraction.  Callers should Close() the returned
// *sqlx.DB.
package database

import (
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Open returns a *sqlx.DB with defaults sized for the extractor's nine
// concurrent snapshot queries.
func Open(dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(dsn, 10, 2)
}

// OpenWithOptions lets callers tune maxOpen and maxIdle per pool.
func OpenWithOptions(dsn string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
