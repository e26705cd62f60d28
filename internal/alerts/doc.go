// Package alerts implements the alert pipeline stages.
//
// An alert definition selects a benchmark series through its shared "test"
// and "label" fields (optionally "platform" and "version"), takes a window of
// recent samples per thread count, reduces each window with its transform and
// compares the result against the shared "threshold". Triggered alerts are
// persisted to the alert history and summarised for the show results stage.
package alerts
