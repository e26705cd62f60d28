package reports

import (
	"math"
	"sort"

	"benchmgr/internal/store"
)

// SeriesKey identifies one test at one thread count.
type SeriesKey struct {
	Test    string
	Threads int
}

// Series summarises the samples of one test at one thread count.
type Series struct {
	Key       SeriesKey
	Count     int
	Mean      float64
	Min       float64
	Max       float64
	StdDev    float64
	Platforms []string
	Versions  []string
}

// CoefficientOfVariation returns StdDev relative to Mean.
func (s Series) CoefficientOfVariation() float64 {
	if s.Mean == 0 {
		return 0
	}
	return s.StdDev / s.Mean
}

// Homogeneous reports whether every sample came from one platform and one version.
func (s Series) Homogeneous() bool {
	return len(s.Platforms) <= 1 && len(s.Versions) <= 1
}

// BuildSeries groups results by test and thread count, ordered by test then threads.
func BuildSeries(results []store.BenchResult) []Series {
	type acc struct {
		values    []float64
		platforms map[string]struct{}
		versions  map[string]struct{}
	}
	groups := make(map[SeriesKey]*acc)
	for _, r := range results {
		key := SeriesKey{Test: r.Test, Threads: r.ThreadCount}
		g, ok := groups[key]
		if !ok {
			g = &acc{platforms: map[string]struct{}{}, versions: map[string]struct{}{}}
			groups[key] = g
		}
		g.values = append(g.values, r.OpsPerSec)
		g.platforms[r.Platform] = struct{}{}
		g.versions[r.Version] = struct{}{}
	}

	out := make([]Series, 0, len(groups))
	for key, g := range groups {
		s := Series{Key: key, Count: len(g.values), Min: math.Inf(1), Max: math.Inf(-1)}
		var sum float64
		for _, v := range g.values {
			sum += v
			s.Min = math.Min(s.Min, v)
			s.Max = math.Max(s.Max, v)
		}
		s.Mean = sum / float64(len(g.values))
		var sq float64
		for _, v := range g.values {
			sq += (v - s.Mean) * (v - s.Mean)
		}
		s.StdDev = math.Sqrt(sq / float64(len(g.values)))
		s.Platforms = sortedKeys(g.platforms)
		s.Versions = sortedKeys(g.versions)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Test != out[j].Key.Test {
			return out[i].Key.Test < out[j].Key.Test
		}
		return out[i].Key.Threads < out[j].Key.Threads
	})
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
