// Package store persists benchmgr state in SQLite.
//
// A single database under the configured state directory holds the alert and
// report definitions (keyed by kind and name), the benchmark results the
// built-in stages read, the alert history those stages write, and the
// terminal outcome of every definition in every run.
//
// Writes retry on SQLITE_BUSY with exponential backoff so concurrent stage
// handlers sharing one Store do not fail on transient lock contention.
package store
