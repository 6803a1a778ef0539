// Package sqlite provides the SQLite implementation of store.TaskStore.
//
// SQLite is the default store for local runs and backs the in-process tests.
// The connection pool is limited to a single connection, which serializes
// writers the way a row lock does on PostgreSQL.
package sqlite
