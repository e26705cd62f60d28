package stage

import (
	"context"
	"log/slog"

	"benchmgr/internal/definition"
	"benchmgr/internal/logging"
)

// ResultSummary is the result key prepare stages write rendered lines to.
const ResultSummary = "summary"

// ShowResults returns the handler for the final stage of both pipelines. It
// logs the summary lines an earlier prepare stage stored on the definition.
func ShowResults(logger *slog.Logger) Handler {
	return func(ctx context.Context, def *definition.Definition) error {
		lines, ok := definition.ResultAs[[]string](def, ResultSummary)
		if !ok {
			return Wrap(ErrMissingInput, definition.StageShowResults, "read summary", "no summary prepared", nil)
		}
		log := logging.WithContext(ctx, logger)
		if len(lines) == 0 {
			log.Info("no results to show", logging.String(logging.FieldEventType, "results_empty"))
			return nil
		}
		for _, line := range lines {
			log.Info(line, logging.String(logging.FieldEventType, "result_line"))
		}
		return nil
	}
}
