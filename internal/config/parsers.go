// Package config loads crankcheck settings from flags and an optional
// JSON, YAML or TOML file. Flags win over file values.
package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// lookupSetting returns the first candidate key present in settings. Viper
// lowercases file keys, so each candidate is also tried in lower case.
func lookupSetting(settings map[string]interface{}, candidates ...string) (interface{}, bool) {
	for _, key := range candidates {
		if val, ok := settings[key]; ok {
			return val, true
		}
		if val, ok := settings[strings.ToLower(key)]; ok {
			return val, true
		}
	}
	return nil, false
}

// asString accepts scalars only; a nested table is a config mistake.
func asString(value interface{}) (string, error) {
	switch value.(type) {
	case map[string]interface{}, map[interface{}]interface{}, []interface{}:
		return "", fmt.Errorf("expected a scalar, got %T", value)
	}
	return cast.ToStringE(value)
}

// asInt rejects fractional numbers instead of truncating them.
func asInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%v is not a whole number", v)
		}
	case float32:
		if float64(v) != math.Trunc(float64(v)) {
			return 0, fmt.Errorf("%v is not a whole number", v)
		}
	case string:
		if strings.TrimSpace(v) == "" {
			return 0, nil
		}
		value = strings.TrimSpace(v)
	}
	return cast.ToIntE(value)
}

// asFloat64 only yields finite values. "NaN" and "Inf" parse as floats but
// are never a usable rate or sample fraction.
func asFloat64(value interface{}) (float64, error) {
	if s, ok := value.(string); ok {
		if strings.TrimSpace(s) == "" {
			return 0, nil
		}
		value = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%v is not a finite number", value)
	}
	return f, nil
}

func asBool(value interface{}) (bool, error) {
	if s, ok := value.(string); ok {
		if strings.TrimSpace(s) == "" {
			return false, nil
		}
		value = strings.TrimSpace(s)
	}
	return cast.ToBoolE(value)
}

// asDuration parses Go duration strings ("5s", "1m30s"). Bare numbers are
// seconds, so `timeout: 2.5` means 2.5s.
func asDuration(value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return v, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return 0, nil
		}
		return time.ParseDuration(v)
	}
	secs, err := asFloat64(value)
	if err != nil {
		return 0, fmt.Errorf("unsupported duration %v: %w", value, err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// asStringMap decodes a headers table. Keys must be non-empty.
func asStringMap(value interface{}) (map[string]string, error) {
	if value == nil {
		return nil, nil
	}
	m, err := cast.ToStringMapStringE(value)
	if err != nil {
		return nil, err
	}
	for key := range m {
		if strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("header key cannot be empty")
		}
	}
	return m, nil
}

// asStringSlice keeps a single string whole; thresholds contain spaces.
func asStringSlice(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	}
	return cast.ToStringSliceE(value)
}

// toStringKeyMap decodes a nested table with lowercased, trimmed keys.
func toStringKeyMap(value interface{}) (map[string]interface{}, error) {
	switch value.(type) {
	case map[string]interface{}, map[interface{}]interface{}:
	default:
		return nil, fmt.Errorf("expected map, got %T", value)
	}
	m, err := cast.ToStringMapE(value)
	if err != nil {
		return nil, err
	}
	result := make(map[string]interface{}, len(m))
	for key, val := range m {
		result[strings.ToLower(strings.TrimSpace(key))] = val
	}
	return result, nil
}
