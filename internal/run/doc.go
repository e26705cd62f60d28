// Package run wires one benchmgr run end to end.
//
// For each kind, alerts first and then reports, the Runner ensures the
// definitions from the configured file are in the store, loads every stored
// definition of that kind, dispatches the batch through the stage registry,
// records each terminal outcome under the run id and sends notifications.
// A malformed stored definition aborts the run before anything is dispatched.
package run
