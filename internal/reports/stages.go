package reports

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"benchmgr/internal/definition"
	"benchmgr/internal/logging"
	"benchmgr/internal/stage"
	"benchmgr/internal/store"
)

// Analysis is the outcome of the analyze results stage.
type Analysis struct {
	Series []Series
	// Noisy lists series whose coefficient of variation exceeds the
	// report's "max_cv" shared field.
	Noisy []SeriesKey
}

// ProcessBenchmarks loads the results for every test the report covers.
func (s *Stages) ProcessBenchmarks(ctx context.Context, def *definition.Definition) error {
	if def.Report == nil {
		return stage.Wrap(stage.ErrInvalidInput, definition.StageProcessBenchmarks, "read params", "definition has no report settings", nil)
	}
	label, _ := def.SharedValue("label")
	platform, _ := def.SharedValue("platform")
	tests := def.Shared["test"]
	if len(tests) == 0 {
		tests = []string{""}
	}

	var all []store.BenchResult
	for _, test := range tests {
		results, err := s.store.ResultsFor(ctx, store.ResultFilter{Test: test, Label: label, Platform: platform})
		if err != nil {
			return stage.Wrap(nil, definition.StageProcessBenchmarks, "load results", test, err)
		}
		all = append(all, results...)
	}
	def.SetResult(ResultSamples, all)
	logging.WithContext(ctx, s.logger).Debug("report samples loaded", logging.Int("result_count", len(all)))
	return nil
}

// PullResults groups the loaded samples into series.
func (s *Stages) PullResults(ctx context.Context, def *definition.Definition) error {
	samples, ok := definition.ResultAs[[]store.BenchResult](def, ResultSamples)
	if !ok {
		return stage.Wrap(stage.ErrMissingInput, definition.StagePullResults, "read samples", "process benchmarks has not run", nil)
	}
	def.SetResult(ResultSeries, BuildSeries(samples))
	return nil
}

// AnalyzeResults enforces homogeneity and flags noisy series.
func (s *Stages) AnalyzeResults(ctx context.Context, def *definition.Definition) error {
	series, ok := definition.ResultAs[[]Series](def, ResultSeries)
	if !ok {
		return stage.Wrap(stage.ErrMissingInput, definition.StageAnalyzeResults, "read series", "pull results has not run", nil)
	}
	if def.Report != nil && def.Report.Homogeneity {
		var mixed []string
		for _, ser := range series {
			if !ser.Homogeneous() {
				mixed = append(mixed, fmt.Sprintf("%s@%d (platforms %s, versions %s)",
					ser.Key.Test, ser.Key.Threads, strings.Join(ser.Platforms, "/"), strings.Join(ser.Versions, "/")))
			}
		}
		if len(mixed) > 0 {
			return stage.Wrap(stage.ErrInvalidInput, definition.StageAnalyzeResults, "check homogeneity",
				"results are not homogeneous: "+strings.Join(mixed, "; "), nil)
		}
	}

	analysis := Analysis{Series: series}
	if raw, ok := def.SharedValue("max_cv"); ok {
		maxCV, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return stage.Wrap(stage.ErrInvalidInput, definition.StageAnalyzeResults, "read max_cv",
				fmt.Sprintf("%q is not a number", raw), err)
		}
		for _, ser := range series {
			if ser.CoefficientOfVariation() > maxCV {
				analysis.Noisy = append(analysis.Noisy, ser.Key)
			}
		}
	}
	def.SetResult(ResultAnalysis, analysis)
	return nil
}

// PrepareReport renders the analysis as a table, one summary line per row.
func (s *Stages) PrepareReport(ctx context.Context, def *definition.Definition) error {
	analysis, ok := definition.ResultAs[Analysis](def, ResultAnalysis)
	if !ok {
		return stage.Wrap(stage.ErrMissingInput, definition.StagePrepareReport, "read analysis", "analyze results has not run", nil)
	}
	noisy := make(map[SeriesKey]bool, len(analysis.Noisy))
	for _, key := range analysis.Noisy {
		noisy[key] = true
	}

	lines := []string{fmt.Sprintf("report %s: %d series", def.Name(), len(analysis.Series))}
	if len(analysis.Series) == 0 {
		def.SetResult(stage.ResultSummary, lines)
		return nil
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"Test", "Threads", "Samples", "Mean ops/s", "Min", "Max", "CV", "Note"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})
	for _, ser := range analysis.Series {
		note := ""
		if noisy[ser.Key] {
			note = "noisy"
		}
		tw.AppendRow(table.Row{
			ser.Key.Test,
			ser.Key.Threads,
			ser.Count,
			fmt.Sprintf("%.1f", ser.Mean),
			fmt.Sprintf("%.1f", ser.Min),
			fmt.Sprintf("%.1f", ser.Max),
			fmt.Sprintf("%.3f", ser.CoefficientOfVariation()),
			note,
		})
	}
	lines = append(lines, strings.Split(tw.Render(), "\n")...)
	def.SetResult(stage.ResultSummary, lines)
	return nil
}
