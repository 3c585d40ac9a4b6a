package model

import "time"

// ExecutionResult is the value every engine returns. Exactly one of the
// embedded payloads is set, and its fields are flattened into the JSON
// object. Error is null if and only if Success is true.
type ExecutionResult struct {
	Success  bool    `json:"success"`
	Duration int64   `json:"duration"`
	Error    *string `json:"error"`

	*APIPayload
	*LoadPayload
	*UIPayload
}

// NewResult builds the common part of a result. A failed result always
// carries a message.
func NewResult(success bool, elapsed time.Duration, failure string) *ExecutionResult {
	r := &ExecutionResult{Success: success, Duration: elapsed.Milliseconds()}
	if !success {
		if failure == "" {
			failure = "execution failed"
		}
		r.Error = &failure
	}
	return r
}

// ErrorMessage returns the failure message, or "" for a successful result.
func (r *ExecutionResult) ErrorMessage() string {
	if r == nil || r.Error == nil {
		return ""
	}
	return *r.Error
}

// APIPayload is the API engine's part of a result.
type APIPayload struct {
	Request    *RequestSnapshot  `json:"request,omitempty"`
	Response   *ResponseSnapshot `json:"response"`
	Assertions []AssertionResult `json:"assertions"`
}

// RequestSnapshot records what was sent, including a shell command that
// reproduces it.
type RequestSnapshot struct {
	Method string `json:"method"`
	URL    string `json:"url"`
	Curl   string `json:"curl,omitempty"`
}

// ResponseSnapshot records what was received. Data is the decoded body.
type ResponseSnapshot struct {
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers,omitempty"`
	Data       any               `json:"data,omitempty"`
	Size       int               `json:"size,omitempty"`
}

// AssertionResult is the outcome of evaluating one AssertionSpec.
type AssertionResult struct {
	Type     AssertionType `json:"type"`
	Passed   bool          `json:"passed"`
	Expected any           `json:"expected"`
	Actual   any           `json:"actual"`
	Path     *string       `json:"path"`
	Operator string        `json:"operator"`
	Message  string        `json:"message"`
	Error    string        `json:"error,omitempty"`
}

// LoadPayload is the load engine's part of a result. Metrics is null when
// the run never started.
type LoadPayload struct {
	Metrics      *LoadMetrics `json:"metrics"`
	SecondlyData []TickStats  `json:"secondlyData,omitempty"`
	Summary      string       `json:"summary,omitempty"`
}

// UIPayload is the UI engine's part of a result.
type UIPayload struct {
	Mode        UIMode              `json:"mode"`
	Navigation  *Navigation         `json:"navigation,omitempty"`
	Steps       []StepResult        `json:"steps"`
	Screenshot  string              `json:"screenshot,omitempty"`
	Performance *PerformanceMetrics `json:"performance,omitempty"`
	Console     []ConsoleEntry      `json:"console,omitempty"`
	Errors      []PageError         `json:"errors,omitempty"`
}

// Navigation describes the page load that preceded the steps.
type Navigation struct {
	Status        int    `json:"status,omitempty"`
	URL           string `json:"url"`
	ContentType   string `json:"contentType,omitempty"`
	ContentLength int    `json:"contentLength,omitempty"`
}

// StepResult is the outcome of one StepSpec.
type StepResult struct {
	Action   string         `json:"action"`
	Selector *string        `json:"selector"`
	Success  bool           `json:"success"`
	Duration int64          `json:"duration"`
	Detail   map[string]any `json:"detail,omitempty"`
	Error    string         `json:"error,omitempty"`
	Message  string         `json:"message"`
	Skipped  bool           `json:"skipped,omitempty"`
}

// PerformanceMetrics are navigation timings read from the page, in
// milliseconds. Nil fields were not reported by the browser.
type PerformanceMetrics struct {
	DOMContentLoaded *int64 `json:"domContentLoaded"`
	FullLoad         *int64 `json:"fullLoad"`
	DOMInteractive   *int64 `json:"domInteractive"`
	FirstPaint       *int64 `json:"firstPaint"`
}

// ConsoleEntry is one console message emitted by the page.
type ConsoleEntry struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// PageError is an uncaught exception raised by the page.
type PageError struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}
