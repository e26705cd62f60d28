// Package stage defines the contract between the dispatch core and the units
// of work that make up a definition's pipeline.
//
// The core only ever calls Executor.Execute with a definition and a stage
// name; what a stage computes lives with the handler registered under that
// name. Registry is the standard Executor: it maps stage names to Handlers
// and fails loudly for names nobody registered.
package stage
