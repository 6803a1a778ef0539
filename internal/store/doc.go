// Package store defines the persistence contract for tasks together with the
// error taxonomy shared by every backend and a helper that runs work inside a
// scoped database transaction.
//
// Implementations live under internal/platform (postgres, sqlite); the service
// layer only depends on the interfaces declared here.
package store
