// Package memrepo is an in-memory implementation of partnercache.Repository,
// used by tests and by local/dev runs that don't need Postgres.
package memrepo
