package dispatch

import (
	"fmt"

	"benchmgr/internal/config"
)

// PoolPolicy decides how many workers serve a batch.
type PoolPolicy interface {
	// Size returns the worker count for a batch of n definitions. It must be
	// at least 1 whenever n is at least 1.
	Size(n int) int
	String() string
}

// OnePerDefinition launches one worker per definition so no definition
// waits behind another.
type OnePerDefinition struct{}

func (OnePerDefinition) Size(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func (OnePerDefinition) String() string { return config.PoolPerDefinition }

// Fixed always launches the same number of workers.
type Fixed int

func (f Fixed) Size(n int) int {
	if n <= 0 {
		return 0
	}
	if f < 1 {
		return 1
	}
	return int(f)
}

func (f Fixed) String() string { return fmt.Sprintf("%s(%d)", config.PoolFixed, int(f)) }

// Bounded launches one worker per definition up to a cap.
type Bounded int

func (b Bounded) Size(n int) int {
	if n <= 0 {
		return 0
	}
	limit := int(b)
	if limit < 1 {
		limit = 1
	}
	return min(n, limit)
}

func (b Bounded) String() string { return fmt.Sprintf("%s(%d)", config.PoolBounded, int(b)) }

// PolicyFromConfig maps the dispatch config section onto a PoolPolicy.
func PolicyFromConfig(cfg config.Dispatch) (PoolPolicy, error) {
	switch cfg.Pool {
	case "", config.PoolPerDefinition:
		return OnePerDefinition{}, nil
	case config.PoolFixed:
		if cfg.Workers <= 0 {
			return nil, fmt.Errorf("dispatch.workers must be positive for %s pool", cfg.Pool)
		}
		return Fixed(cfg.Workers), nil
	case config.PoolBounded:
		if cfg.Workers <= 0 {
			return nil, fmt.Errorf("dispatch.workers must be positive for %s pool", cfg.Pool)
		}
		return Bounded(cfg.Workers), nil
	default:
		return nil, fmt.Errorf("dispatch.pool: unsupported value %q", cfg.Pool)
	}
}
