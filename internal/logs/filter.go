package logs

import (
	"strconv"
	"strings"

	"benchmgr/internal/logging"
)

// Filter selects log lines by structured field. Empty fields match everything.
type Filter struct {
	RunID      string
	Definition string
	Stage      string
}

// Empty reports whether the filter matches every line.
func (f Filter) Empty() bool {
	return f.RunID == "" && f.Definition == "" && f.Stage == ""
}

// Match reports whether line carries every non-empty field of the filter.
func (f Filter) Match(line string) bool {
	return fieldMatches(line, logging.FieldRunID, f.RunID) &&
		fieldMatches(line, logging.FieldDefinition, f.Definition) &&
		fieldMatches(line, logging.FieldStage, f.Stage)
}

func fieldMatches(line, key, value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return true
	}
	quoted := strconv.Quote(value)
	if strings.Contains(line, `"`+key+`":`+quoted) {
		return true
	}
	if containsToken(line, key+"="+quoted) {
		return true
	}
	return containsToken(line, key+"="+value)
}

// containsToken finds needle followed by a space or the end of line so that
// run_id=abc does not match run_id=abcd.
func containsToken(line, needle string) bool {
	for start := 0; start <= len(line)-len(needle); {
		idx := strings.Index(line[start:], needle)
		if idx < 0 {
			return false
		}
		end := start + idx + len(needle)
		if (start+idx == 0 || line[start+idx-1] == ' ') && (end == len(line) || line[end] == ' ') {
			return true
		}
		start += idx + 1
	}
	return false
}
