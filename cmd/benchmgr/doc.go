// Package main hosts the benchmgr CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration once per invocation, opens the
// SQLite store, and hands work to the internal packages: run dispatches
// alert and report definitions, definitions and results manage stored
// inputs, history prints recorded outcomes, serve exposes the read-only
// HTTP API. Commands stay thin; behaviour belongs in internal/.
package main
