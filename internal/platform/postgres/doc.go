// Package postgres provides the PostgreSQL implementation of store.TaskStore,
// the embedded schema migrations for it, and the mapping from PostgreSQL
// error codes to store errors.
package postgres
