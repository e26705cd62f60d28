package alerts

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"benchmgr/internal/definition"
	"benchmgr/internal/logging"
	"benchmgr/internal/stage"
	"benchmgr/internal/store"
)

// Samples maps a thread count to its window of results, newest first.
type Samples map[int][]store.BenchResult

// PullData loads the sample window for every configured thread count.
func (s *Stages) PullData(ctx context.Context, def *definition.Definition) error {
	params, sel, err := selectorFor(def, definition.StagePullData)
	if err != nil {
		return err
	}
	filter := store.ResultFilter{
		Test:     sel.Test,
		Label:    sel.Label,
		Platform: sel.Platform,
		Version:  sel.Version,
		Threads:  params.Threads,
	}
	if params.EpochType == "day" {
		filter.Since = s.now().UTC().AddDate(0, 0, -params.EpochCount)
	}
	results, err := s.store.ResultsFor(ctx, filter)
	if err != nil {
		return stage.Wrap(nil, definition.StagePullData, "load results", "", err)
	}

	samples := make(Samples, len(params.Threads))
	for _, n := range params.Threads {
		samples[n] = nil
	}
	for _, r := range results {
		window := samples[r.ThreadCount]
		if params.EpochType == "run" && len(window) >= params.EpochCount {
			continue
		}
		samples[r.ThreadCount] = append(window, r)
	}
	def.SetResult(ResultSamples, samples)

	logging.WithContext(ctx, s.logger).Debug("alert samples loaded",
		logging.String("test", sel.Test),
		logging.String("label", sel.Label),
		logging.Int("result_count", len(results)),
	)
	return nil
}

// ProcessAlerts reduces each window and compares it with the threshold.
func (s *Stages) ProcessAlerts(ctx context.Context, def *definition.Definition) error {
	params, sel, err := selectorFor(def, definition.StageProcessAlerts)
	if err != nil {
		return err
	}
	samples, ok := definition.ResultAs[Samples](def, ResultSamples)
	if !ok {
		return stage.Wrap(stage.ErrMissingInput, definition.StageProcessAlerts, "read samples", "pull data has not run", nil)
	}

	values := make(map[int]float64, len(samples))
	var triggered []store.AlertRecord
	for _, n := range sortedThreads(samples) {
		window := samples[n]
		value, ok := Reduce(params.Transform, window)
		if !ok {
			continue
		}
		values[n] = value
		hit, err := Compare(params.Comparator, value, sel.Threshold)
		if err != nil {
			return stage.Wrap(stage.ErrInvalidInput, definition.StageProcessAlerts, "compare", "", err)
		}
		if !hit {
			continue
		}
		latest := window[0]
		triggered = append(triggered, store.AlertRecord{
			Test:        sel.Test,
			Label:       sel.Label,
			Version:     latest.Version,
			Platform:    latest.Platform,
			Transform:   params.Transform,
			AlertName:   def.Name(),
			TriggerDate: s.now().UTC(),
			ThreadCount: n,
			Comparator:  params.Comparator,
			Threshold:   sel.Threshold,
			Value:       value,
		})
	}
	def.SetResult(ResultValues, values)
	def.SetResult(ResultTriggered, triggered)
	return nil
}

// PersistAlerts writes triggered alerts to the alert history.
func (s *Stages) PersistAlerts(ctx context.Context, def *definition.Definition) error {
	triggered, ok := definition.ResultAs[[]store.AlertRecord](def, ResultTriggered)
	if !ok {
		return stage.Wrap(stage.ErrMissingInput, definition.StagePersistAlerts, "read alerts", "process alerts has not run", nil)
	}
	if err := s.store.UpsertAlertHistory(ctx, triggered); err != nil {
		return stage.Wrap(nil, definition.StagePersistAlerts, "upsert history", "", err)
	}
	def.SetResult(ResultPersisted, len(triggered))
	if len(triggered) > 0 {
		logging.WithContext(ctx, s.logger).Info("alerts triggered",
			logging.String(logging.FieldEventType, "alerts_triggered"),
			logging.Int("alert_count", len(triggered)),
		)
	}
	return nil
}

// PrepareAlerts renders one summary line per thread count.
func (s *Stages) PrepareAlerts(ctx context.Context, def *definition.Definition) error {
	params, sel, err := selectorFor(def, definition.StagePrepareAlerts)
	if err != nil {
		return err
	}
	values, ok := definition.ResultAs[map[int]float64](def, ResultValues)
	if !ok {
		return stage.Wrap(stage.ErrMissingInput, definition.StagePrepareAlerts, "read values", "process alerts has not run", nil)
	}
	triggered, _ := definition.ResultAs[[]store.AlertRecord](def, ResultTriggered)
	hit := make(map[int]bool, len(triggered))
	for _, a := range triggered {
		hit[a.ThreadCount] = true
	}

	title := cases.Title(language.English)
	transform := title.String(strings.ReplaceAll(params.Transform, "_", " "))
	lines := []string{fmt.Sprintf("%s: %s/%s, %s %s %g, %d of %d thread counts triggered",
		def.Name(), sel.Test, sel.Label, transform, params.Comparator, sel.Threshold, len(triggered), len(params.Threads))}
	for _, n := range params.Threads {
		value, ok := values[n]
		switch {
		case !ok:
			lines = append(lines, fmt.Sprintf("  threads=%d: no data", n))
		case hit[n]:
			lines = append(lines, fmt.Sprintf("  threads=%d: %.2f ALERT", n, value))
		default:
			lines = append(lines, fmt.Sprintf("  threads=%d: %.2f ok", n, value))
		}
	}
	def.SetResult(stage.ResultSummary, lines)
	return nil
}

func sortedThreads(samples Samples) []int {
	threads := make([]int, 0, len(samples))
	for n := range samples {
		threads = append(threads, n)
	}
	sort.Ints(threads)
	return threads
}

