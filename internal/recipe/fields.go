package recipe

import (
	"time"

	"github.com/toltec-dev/toltecmk/internal/bash"
)

// Helpers to check that fields of the right shape are declared and to
// otherwise fall back to a default value

func requireString(vars *bash.Variables, name string) (string, error) {
	value, ok := vars.Get(name)
	if !ok {
		return "", newError(ErrMissingField, "missing required field '%s'", name)
	}
	return asString(name, value)
}

func optionalString(vars *bash.Variables, name, def string) (string, error) {
	value, ok := vars.Get(name)
	if !ok {
		return def, nil
	}
	return asString(name, value)
}

func asString(name string, value bash.Value) (string, error) {
	if value.Indexed {
		return "", newError(ErrWrongType, "field '%s' must be a string, got %s", name, value.TypeName())
	}
	return value.Str, nil
}

func requireIndexed(vars *bash.Variables, name string) ([]string, error) {
	value, ok := vars.Get(name)
	if !ok {
		return nil, newError(ErrMissingField, "missing required field '%s'", name)
	}
	return asIndexed(name, value)
}

func optionalIndexed(vars *bash.Variables, name string) ([]string, error) {
	value, ok := vars.Get(name)
	if !ok {
		return nil, nil
	}
	return asIndexed(name, value)
}

func asIndexed(name string, value bash.Value) ([]string, error) {
	if !value.Indexed {
		return nil, newError(ErrWrongType, "field '%s' must be an indexed array, got %s", name, value.TypeName())
	}
	return append([]string(nil), value.List...), nil
}

// ISO-8601 layouts accepted for the timestamp field, most specific first.
// Both the extended and the basic forms are accepted, with either a T or a
// space between date and time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
	"20060102T150405Z0700",
	"20060102T1504Z0700",
	"20060102T150405",
	"20060102T1504",
	"20060102",
}

// parseTimestamp parses an ISO-8601 date. Values without a zone are UTC.
func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
