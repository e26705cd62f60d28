package alerts

import (
	"fmt"
	"strconv"
	"strings"

	"benchmgr/internal/definition"
	"benchmgr/internal/stage"
)

type selector struct {
	Test      string
	Label     string
	Platform  string
	Version   string
	Threshold float64
}

func selectorFor(def *definition.Definition, stageName string) (*definition.AlertParams, selector, error) {
	if def.Alert == nil {
		return nil, selector{}, stage.Wrap(stage.ErrInvalidInput, stageName, "read params", "definition has no alert settings", nil)
	}
	sel := selector{}
	var missing []string
	var ok bool
	if sel.Test, ok = def.SharedValue("test"); !ok || strings.TrimSpace(sel.Test) == "" {
		missing = append(missing, "test")
	}
	if sel.Label, ok = def.SharedValue("label"); !ok || strings.TrimSpace(sel.Label) == "" {
		missing = append(missing, "label")
	}
	rawThreshold, ok := def.SharedValue("threshold")
	if !ok || strings.TrimSpace(rawThreshold) == "" {
		missing = append(missing, "threshold")
	}
	if len(missing) > 0 {
		return nil, selector{}, stage.Wrap(stage.ErrInvalidInput, stageName, "read selector",
			"missing "+strings.Join(missing, ", "), nil)
	}
	threshold, err := strconv.ParseFloat(strings.TrimSpace(rawThreshold), 64)
	if err != nil {
		return nil, selector{}, stage.Wrap(stage.ErrInvalidInput, stageName, "read selector",
			fmt.Sprintf("threshold %q is not a number", rawThreshold), err)
	}
	sel.Threshold = threshold
	sel.Platform, _ = def.SharedValue("platform")
	sel.Version, _ = def.SharedValue("version")
	return def.Alert, sel, nil
}
