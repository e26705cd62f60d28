// Package logging builds the slog loggers benchmgr uses.
//
// Console output is one key=value line per record with the component in
// brackets and the run, kind, definition and stage fields first; JSON output
// uses the standard slog encoder with a millisecond UTC timestamp. Every
// logger wraps its handler so records logged with a context pick up the
// fields attached by WithRunID, WithDefinition and WithStage.
package logging
