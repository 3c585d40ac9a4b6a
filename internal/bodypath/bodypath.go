// Package bodypath resolves dotted/bracketed paths such as
// "data.items[2].id" against a decoded response body.
package bodypath

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vk/testrig/internal/jsvalue"
)

var indexedSegment = regexp.MustCompile(`^(\w*)\[(\d+)\]$`)

// Resolve walks doc along path and returns the value found there. The second
// return value is false when the path leads nowhere: a missing key, a null
// encountered mid-walk, or an index applied to something that is not an
// array. An empty path returns the whole document.
func Resolve(doc any, path string) (any, bool) {
	if path == "" {
		return doc, true
	}

	current := doc
	for _, segment := range strings.Split(path, ".") {
		if current == nil {
			return nil, false
		}

		if m := indexedSegment.FindStringSubmatch(segment); m != nil {
			if m[1] != "" {
				next, ok := property(current, m[1])
				if !ok {
					return nil, false
				}
				current = next
			}
			arr, ok := current.([]any)
			if !ok {
				return nil, false
			}
			idx, err := strconv.Atoi(m[2])
			if err != nil || idx >= len(arr) {
				return nil, false
			}
			current = arr[idx]
			continue
		}

		next, ok := property(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// property reads a single named member. Arrays accept numeric names and
// "length"; strings accept "length".
func property(v any, name string) (any, bool) {
	switch x := v.(type) {
	case map[string]any:
		val, ok := x[name]
		return val, ok
	case []any:
		if name == "length" {
			return float64(len(x)), true
		}
		idx, err := strconv.Atoi(name)
		if err != nil || idx < 0 || idx >= len(x) {
			return nil, false
		}
		return x[idx], true
	case string:
		if name == "length" {
			return float64(jsvalue.UTF16Len(x)), true
		}
	}
	return nil, false
}
