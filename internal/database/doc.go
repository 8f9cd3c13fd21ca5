// Package database provides the Postgres connection pool backing the
// order journal.
package database
