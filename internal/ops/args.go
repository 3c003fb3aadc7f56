package ops

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/spine/internal/rational"
)

// Args are the arguments of one operation call, as decoded from JSON or
// command-line flags. Numbers may arrive as float64, json.Number, ints or
// strings; every getter accepts all of them.
type Args map[string]any

// Has reports whether name was given.
func (a Args) Has(name string) bool {
	v, ok := a[name]
	return ok && v != nil
}

// Names returns the given argument names, sorted.
func (a Args) Names() []string {
	out := make([]string, 0, len(a))
	for k := range a {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// String returns a string argument, or "" when absent.
func (a Args) String(name string) (string, error) {
	if !a.Has(name) {
		return "", nil
	}
	switch v := a[name].(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	}
	return "", invalidArg(name, nil, "expected a string, got %s", typeName(a[name]))
}

// Bool returns a boolean argument, or false when absent. The strings
// "true", "false", "1" and "0" are accepted too.
func (a Args) Bool(name string) (bool, error) {
	if !a.Has(name) {
		return false, nil
	}
	switch v := a[name].(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, invalidArg(name, err, "expected true or false, got %q", v)
		}
		return b, nil
	}
	return false, invalidArg(name, nil, "expected a boolean, got %s", typeName(a[name]))
}

// Int returns an integer argument, or 0 when absent. Floats must be whole.
func (a Args) Int(name string) (int, error) {
	if !a.Has(name) {
		return 0, nil
	}
	switch v := a[name].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
			return 0, invalidArg(name, nil, "expected a whole number, got %v", v)
		}
		return int(v), nil
	case json.Number:
		return parseInt(name, v.String())
	case string:
		return parseInt(name, v)
	}
	return 0, invalidArg(name, nil, "expected a number, got %s", typeName(a[name]))
}

func parseInt(name, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, invalidArg(name, err, "expected a whole number, got %q", s)
	}
	return n, nil
}

// Time returns a time argument and whether it was given. Strings take any
// form rational.ParseAt accepts, timecodes and frame counts resolved at
// rate. Numbers are seconds; a float is read through its shortest decimal
// form so 0.1 is exactly one tenth.
func (a Args) Time(name string, rate rational.FrameRate) (rational.TimeValue, bool, error) {
	if !a.Has(name) {
		return rational.TimeValue{}, false, nil
	}
	t, err := toTime(name, a[name], rate)
	return t, true, err
}

// Times returns a list of times: a JSON array of numbers or strings, or a
// comma-separated string.
func (a Args) Times(name string, rate rational.FrameRate) ([]rational.TimeValue, error) {
	if !a.Has(name) {
		return nil, nil
	}
	var raw []any
	switch v := a[name].(type) {
	case []any:
		raw = v
	case []string:
		for _, s := range v {
			raw = append(raw, s)
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				raw = append(raw, s)
			}
		}
	default:
		t, err := toTime(name, v, rate)
		if err != nil {
			return nil, err
		}
		return []rational.TimeValue{t}, nil
	}
	out := make([]rational.TimeValue, 0, len(raw))
	for _, e := range raw {
		t, err := toTime(name, e, rate)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func toTime(name string, v any, rate rational.FrameRate) (rational.TimeValue, error) {
	var (
		t   rational.TimeValue
		err error
	)
	switch val := v.(type) {
	case string:
		t, err = rational.ParseAt(val, rate)
	case float64:
		if math.IsInf(val, 0) || math.IsNaN(val) {
			return rational.TimeValue{}, invalidArg(name, nil, "expected a finite number")
		}
		t, err = rational.ParseNumber(strconv.FormatFloat(val, 'f', -1, 64))
	case json.Number:
		t, err = rational.ParseNumber(val.String())
	case int:
		t = rational.Seconds(int64(val))
	case int64:
		t = rational.Seconds(val)
	case rational.TimeValue:
		t = val
	default:
		return rational.TimeValue{}, invalidArg(name, nil, "expected a time, got %s", typeName(v))
	}
	if err != nil {
		return rational.TimeValue{}, invalidArg(name, err, "malformed time %v", v)
	}
	return t, nil
}

// Strings returns a list argument. A JSON array of strings, a []string or a
// comma-separated string are all accepted; blank entries are dropped.
func (a Args) Strings(name string) ([]string, error) {
	if !a.Has(name) {
		return nil, nil
	}
	var raw []string
	switch v := a[name].(type) {
	case []string:
		raw = v
	case string:
		raw = strings.Split(v, ",")
	case []any:
		for i, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, invalidArg(name, nil, "element %d: expected a string, got %s", i, typeName(e))
			}
			raw = append(raw, s)
		}
	default:
		return nil, invalidArg(name, nil, "expected a list of strings, got %s", typeName(a[name]))
	}
	var out []string
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

// Canonical returns a copy of the arguments that ir.MarshalCanonical
// accepts: floats become their shortest decimal strings, json.Number its
// text, and nil entries are dropped.
func (a Args) Canonical() map[string]any {
	out := make(map[string]any, len(a))
	for k, v := range a {
		if v == nil {
			continue
		}
		out[k] = canonicalValue(v)
	}
	return out
}

func canonicalValue(v any) any {
	switch val := v.(type) {
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1<<53 {
			return int64(val)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return canonicalValue(float64(val))
	case json.Number:
		return val.String()
	case []any:
		out := make([]any, 0, len(val))
		for _, e := range val {
			if e != nil {
				out = append(out, canonicalValue(e))
			}
		}
		return out
	case map[string]any:
		return Args(val).Canonical()
	case Args:
		return val.Canonical()
	}
	return v
}

func typeName(v any) string {
	switch v.(type) {
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case float64, int, int64, json.Number:
		return "a number"
	case []any, []string:
		return "a list"
	case map[string]any:
		return "an object"
	}
	return fmt.Sprintf("%T", v)
}
