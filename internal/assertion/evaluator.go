// Package assertion evaluates declarative response checks against a captured
// HTTP response.
package assertion

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/vk/testrig/internal/bodypath"
	"github.com/vk/testrig/internal/jsvalue"
	"github.com/vk/testrig/internal/model"
)

// Response is the part of an HTTP exchange an assertion can observe.
type Response struct {
	Status int
	// Header holds response headers keyed by lower-case name, with multiple
	// values joined by ", ".
	Header map[string]string
	// Body is the decoded response body: parsed JSON when the payload is
	// JSON, otherwise the raw text.
	Body any
	// Raw is the body as received. Text checks read JSON bodies from it so
	// object members keep the server's order.
	Raw []byte
}

// Text is the body serialized as JSON, as the text checks see it.
func (r *Response) Text() string {
	return jsvalue.StringifySource(r.Raw, r.Body)
}

// HeaderValue looks a header up case-insensitively.
func (r *Response) HeaderValue(name string) (string, bool) {
	v, ok := r.Header[strings.ToLower(name)]
	return v, ok
}

// ImplicitStatus is the check added when a test configures no status
// assertion of its own: any status below 400 passes.
func ImplicitStatus(status int) model.AssertionResult {
	passed := status < 400
	msg := fmt.Sprintf("[Auto] HTTP %d OK", status)
	if !passed {
		msg = fmt.Sprintf("[Auto] HTTP %d >= 400, treated as failure", status)
	}
	return model.AssertionResult{
		Type:     model.AssertStatus,
		Passed:   passed,
		Expected: "< 400",
		Actual:   status,
		Operator: "auto",
		Message:  msg,
	}
}

// EvaluateAll runs every spec in order and prepends the implicit status
// check when none of the specs is a status assertion.
func EvaluateAll(resp *Response, specs []model.AssertionSpec, elapsed time.Duration) []model.AssertionResult {
	results := make([]model.AssertionResult, 0, len(specs)+1)
	hasStatus := false
	for _, spec := range specs {
		if spec.Type == model.AssertStatus {
			hasStatus = true
		}
	}
	if !hasStatus {
		results = append(results, ImplicitStatus(resp.Status))
	}
	for _, spec := range specs {
		results = append(results, Evaluate(resp, spec, elapsed))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []model.AssertionResult) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// CountFailed returns the number of failed results.
func CountFailed(results []model.AssertionResult) int {
	n := 0
	for _, r := range results {
		if !r.Passed {
			n++
		}
	}
	return n
}

// Evaluate checks one spec against resp. It never panics: a failure inside
// a check becomes a failed result carrying the error message.
func Evaluate(resp *Response, spec model.AssertionSpec, elapsed time.Duration) (result model.AssertionResult) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprint(r)
			result = model.AssertionResult{
				Type:     spec.Type,
				Passed:   false,
				Expected: spec.Expected,
				Actual:   nil,
				Path:     pathOf(spec),
				Operator: operatorOf(spec),
				Error:    msg,
				Message:  "[FAIL] assertion raised an error: " + msg,
			}
		}
	}()

	actual, passed, err := check(resp, spec, elapsed)
	if err != nil {
		return model.AssertionResult{
			Type:     spec.Type,
			Passed:   false,
			Expected: spec.Expected,
			Actual:   nil,
			Path:     pathOf(spec),
			Operator: operatorOf(spec),
			Error:    err.Error(),
			Message:  "[FAIL] assertion raised an error: " + err.Error(),
		}
	}

	msg := "[PASS] assertion passed"
	if !passed {
		msg = fmt.Sprintf("[FAIL] assertion failed: expected %s, actual %s",
			jsvalue.String(spec.Expected), jsvalue.String(actual))
	}
	return model.AssertionResult{
		Type:     spec.Type,
		Passed:   passed,
		Expected: spec.Expected,
		Actual:   actual,
		Path:     pathOf(spec),
		Operator: operatorOf(spec),
		Message:  msg,
	}
}

func check(resp *Response, spec model.AssertionSpec, elapsed time.Duration) (any, bool, error) {
	expected := spec.Expected

	switch spec.Type {
	case model.AssertStatus:
		return resp.Status, float64(resp.Status) == jsvalue.Number(expected), nil

	case model.AssertJSON:
		actual := lookup(resp, spec.Path)
		switch spec.Operator {
		case "", "equals":
			return actual, jsvalue.String(actual) == jsvalue.String(expected), nil
		case "notEquals":
			return actual, jsvalue.String(actual) != jsvalue.String(expected), nil
		case "contains":
			return actual, strings.Contains(jsvalue.String(actual), jsvalue.String(expected)), nil
		case "exists":
			return actual, !jsvalue.IsNullish(actual), nil
		default:
			return actual, jsvalue.StrictEqual(actual, expected), nil
		}

	case model.AssertContains:
		actual := resp.Text()
		return actual, strings.Contains(actual, jsvalue.String(expected)), nil

	case model.AssertNotContains:
		actual := resp.Text()
		return actual, !strings.Contains(actual, jsvalue.String(expected)), nil

	case model.AssertHeader:
		if spec.Header == "" {
			return nil, false, fmt.Errorf("header assertion requires a header name")
		}
		value, present := resp.HeaderValue(spec.Header)
		actual := jsvalue.Defined(value, present)
		switch spec.Operator {
		case "contains":
			return actual, present && value != "" && strings.Contains(value, jsvalue.String(expected)), nil
		case "exists":
			return actual, present, nil
		default:
			return actual, jsvalue.StrictEqual(actual, expected), nil
		}

	case model.AssertResponseTime:
		actual := elapsed.Milliseconds()
		return actual, float64(actual) <= jsvalue.Number(expected), nil

	case model.AssertRegex:
		actual := resp.Text()
		re, err := regexp.Compile(jsvalue.String(expected))
		if err != nil {
			return actual, false, fmt.Errorf("invalid regular expression: %w", err)
		}
		return actual, re.MatchString(actual), nil

	case model.AssertNotEmpty:
		actual := lookup(resp, spec.Path)
		switch x := actual.(type) {
		case []any:
			return actual, len(x) > 0, nil
		case string:
			return actual, strings.TrimSpace(x) != "", nil
		default:
			return actual, !jsvalue.IsNullish(actual), nil
		}

	case model.AssertLength:
		n, ok := jsvalue.Length(lookup(resp, spec.Path))
		if !ok {
			return "not array or string", false, nil
		}
		return n, float64(n) == jsvalue.Number(expected), nil

	case model.AssertGreaterThan:
		actual := lookup(resp, spec.Path)
		return actual, jsvalue.Number(actual) > jsvalue.Number(expected), nil

	case model.AssertLessThan:
		actual := lookup(resp, spec.Path)
		return actual, jsvalue.Number(actual) < jsvalue.Number(expected), nil

	case model.AssertTypeOf:
		actual := jsvalue.TypeOf(lookup(resp, spec.Path))
		return actual, actual == jsvalue.String(expected), nil

	default:
		return fmt.Sprintf("unknown assertion type: %s", spec.Type), false, nil
	}
}

func lookup(resp *Response, path string) any {
	return jsvalue.Defined(bodypath.Resolve(resp.Body, path))
}

func pathOf(spec model.AssertionSpec) *string {
	if spec.Path == "" {
		return nil
	}
	p := spec.Path
	return &p
}

func operatorOf(spec model.AssertionSpec) string {
	if spec.Operator == "" {
		return "equals"
	}
	return spec.Operator
}
