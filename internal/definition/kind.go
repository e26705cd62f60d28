package definition

import "strings"

// Kind distinguishes alert checks from report generations.
type Kind string

const (
	KindAlert  Kind = "alert"
	KindReport Kind = "report"
)

// Stage names shared by both pipelines.
const (
	StagePullData          = "pull data"
	StageProcessAlerts     = "process alerts"
	StagePersistAlerts     = "persist alerts"
	StagePrepareAlerts     = "prepare alerts"
	StageProcessBenchmarks = "process benchmarks"
	StagePullResults       = "pull results"
	StageAnalyzeResults    = "analyze results"
	StagePrepareReport     = "prepare report"
	StageShowResults       = "show results"
)

var alertPipeline = []string{
	StagePullData,
	StageProcessAlerts,
	StagePersistAlerts,
	StagePrepareAlerts,
	StageShowResults,
}

var reportPipeline = []string{
	StageProcessBenchmarks,
	StagePullResults,
	StageAnalyzeResults,
	StagePrepareReport,
	StageShowResults,
}

var allKinds = []Kind{KindAlert, KindReport}

// AllKinds returns the known kinds in processing order.
func AllKinds() []Kind {
	cp := make([]Kind, len(allKinds))
	copy(cp, allKinds)
	return cp
}

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindAlert:
		return KindAlert, true
	case KindReport:
		return KindReport, true
	default:
		return "", false
	}
}

// Pipeline returns a copy of the ordered stage names for the kind.
func (k Kind) Pipeline() []string {
	var src []string
	switch k {
	case KindAlert:
		src = alertPipeline
	case KindReport:
		src = reportPipeline
	default:
		return nil
	}
	cp := make([]string, len(src))
	copy(cp, src)
	return cp
}

func (k Kind) String() string { return string(k) }
