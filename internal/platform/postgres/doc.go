// Package postgres implements the persistence contracts of internal/store and
// internal/job on PostgreSQL through the pgx database/sql driver. It also owns
// the embedded goose migrations that define the schema.
package postgres
