package definition

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Record is a raw definition as stored: a name and kind plus field values.
// Scalars are stored as single-element lists.
type Record struct {
	Kind   Kind
	Name   string
	Fields map[string][]string
}

// First returns the first value of a field.
func (r Record) First(field string) (string, bool) {
	values := r.Fields[field]
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// MalformedError reports every problem found while turning a record into a
// Definition.
type MalformedError struct {
	Kind     Kind
	Name     string
	Problems []string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed %s definition %q: %s", e.Kind, e.Name, strings.Join(e.Problems, "; "))
}

// ErrMalformed matches any *MalformedError via errors.Is.
var ErrMalformed = errors.New("malformed definition")

func (e *MalformedError) Is(target error) bool { return target == ErrMalformed }

var alertFields = map[string]struct{}{
	"transform":   {},
	"comparator":  {},
	"epoch_type":  {},
	"threads":     {},
	"epoch_count": {},
}

var reportFields = map[string]struct{}{
	"homogeneity": {},
}

// FromRecord converts a stored record into a not-started Definition. Missing
// or unparsable kind-specific fields are rejected before anything is built.
func FromRecord(rec Record) (*Definition, error) {
	name := strings.TrimSpace(rec.Name)
	malformed := &MalformedError{Kind: rec.Kind, Name: name}
	if name == "" {
		malformed.Problems = append(malformed.Problems, "name is required")
		return nil, malformed
	}

	switch rec.Kind {
	case KindAlert:
		params := AlertParams{}
		params.Transform = strings.ToLower(firstTrimmed(rec, "transform"))
		params.Comparator = strings.ToLower(firstTrimmed(rec, "comparator"))
		params.EpochType = strings.ToLower(firstTrimmed(rec, "epoch_type"))
		if values, ok := rec.Fields["threads"]; ok {
			for _, raw := range splitValues(values) {
				n, err := strconv.Atoi(raw)
				if err != nil {
					malformed.Problems = append(malformed.Problems, fmt.Sprintf("threads: %q is not an integer", raw))
					continue
				}
				params.Threads = append(params.Threads, n)
			}
		}
		if raw := firstTrimmed(rec, "epoch_count"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				malformed.Problems = append(malformed.Problems, fmt.Sprintf("epoch_count: %q is not an integer", raw))
			}
			params.EpochCount = n
		}
		malformed.Problems = append(malformed.Problems, payloadProblems(&params)...)
		if len(malformed.Problems) > 0 {
			return nil, malformed
		}
		return newDefinition(KindAlert, name, &params, nil, sharedFields(rec, alertFields)), nil

	case KindReport:
		params := ReportParams{}
		raw, ok := rec.First("homogeneity")
		if !ok {
			malformed.Problems = append(malformed.Problems, "homogeneity is required")
		} else {
			v, err := strconv.ParseBool(strings.TrimSpace(raw))
			if err != nil {
				malformed.Problems = append(malformed.Problems, fmt.Sprintf("homogeneity: %q is not a boolean", raw))
			}
			params.Homogeneity = v
		}
		if len(malformed.Problems) > 0 {
			return nil, malformed
		}
		return newDefinition(KindReport, name, nil, &params, sharedFields(rec, reportFields)), nil

	default:
		malformed.Problems = append(malformed.Problems, fmt.Sprintf("unknown kind %q", rec.Kind))
		return nil, malformed
	}
}

// ToRecord converts a definition back into the stored record shape.
func ToRecord(d *Definition) Record {
	fields := make(map[string][]string, len(d.Shared)+5)
	for key, values := range d.Shared {
		fields[key] = append([]string(nil), values...)
	}
	switch {
	case d.Alert != nil:
		fields["transform"] = []string{d.Alert.Transform}
		fields["comparator"] = []string{d.Alert.Comparator}
		fields["epoch_type"] = []string{d.Alert.EpochType}
		threads := make([]string, 0, len(d.Alert.Threads))
		for _, n := range d.Alert.Threads {
			threads = append(threads, strconv.Itoa(n))
		}
		fields["threads"] = threads
		fields["epoch_count"] = []string{strconv.Itoa(d.Alert.EpochCount)}
	case d.Report != nil:
		fields["homogeneity"] = []string{strconv.FormatBool(d.Report.Homogeneity)}
	}
	return Record{Kind: d.kind, Name: d.name, Fields: fields}
}

func firstTrimmed(rec Record, field string) string {
	v, _ := rec.First(field)
	return strings.TrimSpace(v)
}

// splitValues flattens list values and comma-separated scalars.
func splitValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func sharedFields(rec Record, consumed map[string]struct{}) map[string][]string {
	shared := make(map[string][]string)
	for key, values := range rec.Fields {
		if _, ok := consumed[key]; ok {
			continue
		}
		shared[key] = values
	}
	return shared
}

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			if name := fld.Tag.Get("field"); name != "" {
				return name
			}
			return strings.ToLower(fld.Name)
		})
		validateInst = v
	})
	return validateInst
}

func validatePayload(kind Kind, name string, payload any) error {
	malformed := &MalformedError{Kind: kind, Name: strings.TrimSpace(name)}
	if malformed.Name == "" {
		malformed.Problems = append(malformed.Problems, "name is required")
	}
	malformed.Problems = append(malformed.Problems, payloadProblems(payload)...)
	if len(malformed.Problems) > 0 {
		return malformed
	}
	return nil
}

func payloadProblems(payload any) []string {
	err := validatorInstance().Struct(payload)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return []string{err.Error()}
	}
	problems := make([]string, 0, len(ves))
	for _, fe := range ves {
		problems = append(problems, describeFieldError(fe))
	}
	sort.Strings(problems)
	return problems
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fmt.Sprint(fe.Value()))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s needs at least %s value(s)", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation for tag '%s'", field, fe.Tag())
	}
}
