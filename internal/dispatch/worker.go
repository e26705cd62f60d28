package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"benchmgr/internal/definition"
	"benchmgr/internal/logging"
	"benchmgr/internal/stage"
)

// Worker takes definitions off a queue and runs each pipeline to a terminal
// state. A worker only ever touches the definition it currently holds.
type Worker struct {
	id           int
	executor     stage.Executor
	logger       *slog.Logger
	stageTimeout time.Duration
	onTerminal   func(definition.Snapshot)
}

// Run processes items until the queue is closed and drained. Every popped
// item is marked done, whether its pipeline succeeded or not.
func (w *Worker) Run(ctx context.Context, q Queue) {
	for {
		def, ok := q.Pop()
		if !ok {
			return
		}
		w.handle(ctx, q, def)
	}
}

func (w *Worker) handle(ctx context.Context, q Queue, def *definition.Definition) {
	defer q.Done()
	w.process(ctx, def)
}

func (w *Worker) process(ctx context.Context, def *definition.Definition) {
	defCtx := logging.WithDefinition(ctx, def.Kind().String(), def.Name())
	logger := logging.WithContext(defCtx, w.logger).With(logging.Int(logging.FieldWorker, w.id))

	if err := def.Start(); err != nil {
		logging.ErrorWithContext(logger, "definition could not start", "definition_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "definition was submitted twice or reused across runs"),
		)
		return
	}
	started := time.Now()
	logger.Info("definition started",
		logging.String(logging.FieldEventType, "definition_start"),
		logging.Int("stage_count", len(def.Pipeline())),
	)

	for {
		name, ok := def.CurrentStage()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			w.fail(logger, def, name, err)
			return
		}
		if err := w.runStage(defCtx, logger, def, name); err != nil {
			w.fail(logger, def, name, err)
			return
		}
		if err := def.Advance(); err != nil {
			w.fail(logger, def, name, err)
			return
		}
	}

	if err := def.Complete(); err != nil {
		w.fail(logger, def, "", err)
		return
	}
	logger.Info("definition completed",
		logging.String(logging.FieldEventType, "definition_complete"),
		logging.Duration("definition_duration", time.Since(started)),
	)
	w.finish(def)
}

func (w *Worker) runStage(ctx context.Context, logger *slog.Logger, def *definition.Definition, name string) (err error) {
	stageCtx := logging.WithStage(ctx, name)
	if w.stageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(stageCtx, w.stageTimeout)
		defer cancel()
	}
	stageLogger := logger.With(logging.String(logging.FieldStage, name))
	stageStart := time.Now()
	stageLogger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	defer func() {
		if r := recover(); r != nil {
			err = stage.Wrap(stage.ErrPanic, name, "execute", fmt.Sprint(r), nil)
		}
	}()

	if err := w.executor.Execute(stageCtx, def, name); err != nil {
		return err
	}
	stageLogger.Debug("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	return nil
}

func (w *Worker) fail(logger *slog.Logger, def *definition.Definition, stageName string, stageErr error) {
	reason := "stage failed"
	if stageErr != nil {
		if msg := strings.TrimSpace(stageErr.Error()); msg != "" {
			reason = msg
		}
	}
	if err := def.Fail(stageName, reason); err != nil {
		logger.Error("failed to record definition failure", logging.Error(err))
	}
	logger.Error("stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String(logging.FieldStage, stageName),
		logging.Int("stage_index", def.StageIndex()),
		logging.Error(stageErr),
	)
	w.finish(def)
}

func (w *Worker) finish(def *definition.Definition) {
	if w.onTerminal != nil {
		w.onTerminal(def.Snapshot())
	}
}
