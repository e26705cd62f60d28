// Package logs reads benchmgr log files for the CLI.
//
// Tail returns the last N lines of a log, optionally narrowed to one run or
// definition through the structured fields the logging package writes in both
// console (key=value) and JSON form. Follow polls the file from an offset and
// emits new matching lines until its context ends, restarting from the top
// when the file is truncated or rotated.
package logs
