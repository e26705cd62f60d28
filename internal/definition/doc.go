// Package definition models the alert and report definitions benchmgr runs.
//
// A Definition pairs an immutable identity (kind and name) and a fixed
// pipeline of stage names with mutable run state. Kind-specific settings are
// carried as typed payloads (AlertParams or ReportParams) instead of a loose
// key/value bag; anything else the definition file declares is kept in
// Shared so stages can read it.
//
// State only moves forward: not started, running, then completed or failed.
// The transition methods enforce that order and are the only way to mutate
// run state, which keeps a Definition safe to snapshot from other goroutines
// while the worker that owns it advances the pipeline.
package definition
