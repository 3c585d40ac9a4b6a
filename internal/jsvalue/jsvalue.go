// Package jsvalue implements the loose value semantics that test
// configurations are written against: string coercion, numeric coercion,
// typeof names and strict equality over decoded JSON values.
//
// Decoded JSON follows encoding/json conventions (float64, string, bool, nil,
// []any, map[string]any). Absence of a value is represented by Undefined,
// which is distinct from a JSON null (nil).
package jsvalue

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
)

type undefined struct{}

// Undefined marks a value that does not exist, as opposed to a JSON null.
var Undefined any = undefined{}

// MarshalJSON renders an undefined value as null.
func (undefined) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

func (undefined) String() string { return "undefined" }

// IsUndefined reports whether v is the Undefined marker.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

// IsNullish reports whether v is nil or Undefined.
func IsNullish(v any) bool {
	return v == nil || IsUndefined(v)
}

// Defined converts a comma-ok lookup into a value, substituting Undefined
// when the lookup found nothing.
func Defined(v any, ok bool) any {
	if !ok {
		return Undefined
	}
	return v
}

// String coerces v to a string the way String(v) does in a browser.
func String(v any) string {
	switch x := v.(type) {
	case undefined:
		return "undefined"
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatNumber(x)
	case float32:
		return formatNumber(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	case []any:
		parts := make([]string, len(x))
		for i, el := range x {
			if !IsNullish(el) {
				parts[i] = String(el)
			}
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return "[object Object]"
	default:
		return JSONStringify(v)
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Number coerces v to a float64 the way Number(v) does. Values with no
// numeric meaning yield NaN.
func Number(v any) float64 {
	switch x := v.(type) {
	case undefined:
		return math.NaN()
	case nil:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case json.Number:
		return parseNumber(x.String())
	case string:
		return parseNumber(x)
	case []any:
		switch len(x) {
		case 0:
			return 0
		case 1:
			return parseNumber(String(x[0]))
		}
		return math.NaN()
	default:
		return math.NaN()
	}
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0o") || strings.HasPrefix(lower, "0b") {
		if n, err := strconv.ParseInt(s, 0, 64); err == nil {
			return float64(n)
		}
		return math.NaN()
	}
	if strings.ContainsAny(lower, "_n") || strings.Contains(lower, "inf") {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// TypeOf returns the typeof name of v.
func TypeOf(v any) string {
	switch v.(type) {
	case undefined:
		return "undefined"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, json.Number:
		return "number"
	default:
		return "object"
	}
}

// StrictEqual compares two values with === semantics. Arrays and objects are
// never equal to each other because they have no shared identity here.
func StrictEqual(a, b any) bool {
	if IsUndefined(a) || IsUndefined(b) {
		return IsUndefined(a) && IsUndefined(b)
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if TypeOf(a) == "number" && TypeOf(b) == "number" {
		return Number(a) == Number(b)
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	}
	return false
}

// JSONStringify serializes v without HTML escaping, mirroring JSON.stringify
// for the value shapes produced by encoding/json.
func JSONStringify(v any) string {
	if IsUndefined(v) {
		return ""
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// StringifySource serializes v, which was decoded from source. Objects keep
// the member order of source, which a re-encoded map would lose. When v is
// a plain string or source is not valid JSON, it falls back to JSONStringify.
func StringifySource(source []byte, v any) string {
	if _, isString := v.(string); isString || IsUndefined(v) {
		return JSONStringify(v)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, bytes.TrimSpace(source)); err != nil || buf.Len() == 0 {
		return JSONStringify(v)
	}
	return buf.String()
}

// Length returns the length of an array or string value.
func Length(v any) (int, bool) {
	switch x := v.(type) {
	case []any:
		return len(x), true
	case string:
		return UTF16Len(x), true
	}
	return 0, false
}

// UTF16Len counts s in UTF-16 code units, so characters outside the basic
// multilingual plane count twice.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
