package stage

import (
	"context"

	"benchmgr/internal/definition"
)

// Executor runs one named stage for a definition. A nil error means the stage
// succeeded and the definition may advance; any error fails the definition.
// Executors mutate the definition in place through its result helpers.
type Executor interface {
	Execute(ctx context.Context, def *definition.Definition, stageName string) error
}

// Handler performs the work of a single stage.
type Handler func(ctx context.Context, def *definition.Definition) error

// Func adapts a plain function into an Executor.
type Func func(ctx context.Context, def *definition.Definition, stageName string) error

// Execute calls f.
func (f Func) Execute(ctx context.Context, def *definition.Definition, stageName string) error {
	return f(ctx, def, stageName)
}
