package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"benchmgr/internal/definition"
)

// ErrUnsupportedFormat is returned for files that are neither TOML nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported definition file format")

// Format identifies a definition file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// LoadFile reads every definition in the file as records of the given kind,
// sorted by name.
func LoadFile(path string, kind definition.Kind) ([]definition.Record, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}
	records, err := Parse(data, format, kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Parse decodes definition data in the given format.
func Parse(data []byte, format Format, kind definition.Kind) ([]definition.Record, error) {
	var sections map[string]map[string]any
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &sections); err != nil {
			return nil, fmt.Errorf("parse toml definitions: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &sections); err != nil {
			return nil, fmt.Errorf("parse yaml definitions: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)

	records := make([]definition.Record, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return nil, errors.New("definition with empty name")
		}
		fields := make(map[string][]string, len(sections[name]))
		for key, raw := range sections[name] {
			values, err := flatten(raw)
			if err != nil {
				return nil, fmt.Errorf("definition %q field %q: %w", trimmed, key, err)
			}
			fields[strings.TrimSpace(key)] = values
		}
		records = append(records, definition.Record{Kind: kind, Name: trimmed, Fields: fields})
	}
	return records, nil
}

func flatten(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			s, err := scalar(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		parts := strings.Split(v, ", ")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			out = append(out, strings.TrimSpace(part))
		}
		return out, nil
	default:
		s, err := scalar(v)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
}

func scalar(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported value %v (%T)", v, v)
	}
}
