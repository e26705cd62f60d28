package alerts

import (
	"fmt"

	"benchmgr/internal/store"
)

// Reduce applies a transform to a window of samples ordered newest first.
// It reports false when the window holds too few samples for the transform.
//
//	none            latest throughput
//	mean            mean throughput over the window
//	percent_change  change from the oldest to the latest sample, in percent
func Reduce(transform string, window []store.BenchResult) (float64, bool) {
	if len(window) == 0 {
		return 0, false
	}
	switch transform {
	case "none":
		return window[0].OpsPerSec, true
	case "mean":
		var sum float64
		for _, r := range window {
			sum += r.OpsPerSec
		}
		return sum / float64(len(window)), true
	case "percent_change":
		if len(window) < 2 {
			return 0, false
		}
		oldest := window[len(window)-1].OpsPerSec
		if oldest == 0 {
			return 0, false
		}
		return (window[0].OpsPerSec - oldest) / oldest * 100, true
	default:
		return 0, false
	}
}

// Compare reports whether value triggers against threshold.
func Compare(comparator string, value, threshold float64) (bool, error) {
	switch comparator {
	case "gt":
		return value > threshold, nil
	case "ge":
		return value >= threshold, nil
	case "lt":
		return value < threshold, nil
	case "le":
		return value <= threshold, nil
	default:
		return false, fmt.Errorf("unknown comparator %q", comparator)
	}
}
