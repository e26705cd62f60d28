// Package reports implements the report pipeline stages.
//
// A report gathers benchmark results for the tests named in its shared
// "test" field (all tests when absent), groups them into per-test,
// per-thread-count series, checks homogeneity when the report demands it
// and renders a throughput table for the show results stage.
package reports
