package stage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownStage is returned for stage names without a registered handler.
	ErrUnknownStage = errors.New("unknown stage")
	// ErrMissingInput marks a stage that ran before the data it needs was produced.
	ErrMissingInput = errors.New("missing stage input")
	// ErrInvalidInput marks definition settings a stage cannot act on.
	ErrInvalidInput = errors.New("invalid stage input")
	// ErrPanic marks a stage handler that panicked.
	ErrPanic = errors.New("stage panicked")
)

// Wrap describes a stage failure as "stage: operation: message" and tags it
// with marker for errors.Is. Either marker or err may be nil; blank parts
// are skipped.
func Wrap(marker error, stageName, operation, message string, err error) error {
	var parts []string
	for _, p := range []string{stageName, operation, message} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	detail := strings.Join(parts, ": ")
	if detail == "" {
		detail = "stage failure"
	}

	switch {
	case marker == nil && err == nil:
		return errors.New(detail)
	case marker == nil:
		return fmt.Errorf("%s: %w", detail, err)
	case err == nil:
		return fmt.Errorf("%w: %s", marker, detail)
	default:
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
}
