package model

// APIConfig describes a single HTTP request and the assertions run on its
// response. Timeout is in milliseconds.
type APIConfig struct {
	URL         string            `json:"url"`
	Method      string            `json:"method,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Body        any               `json:"body,omitempty"`
	QueryParams map[string]string `json:"queryParams,omitempty"`
	Timeout     int               `json:"timeout,omitempty"`
	Assertions  []AssertionSpec   `json:"assertions,omitempty"`
}

// LoadConfig describes a fixed-window load run against one target. Duration
// and RampUpDuration are in seconds, Timeout in milliseconds.
type LoadConfig struct {
	Target         string            `json:"target"`
	Duration       int               `json:"duration,omitempty"`
	ArrivalRate    int               `json:"arrivalRate,omitempty"`
	RampUpDuration int               `json:"rampUpDuration,omitempty"`
	Method         string            `json:"method,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	Body           any               `json:"body,omitempty"`
	Timeout        int               `json:"timeout,omitempty"`
	MaxConcurrent  int               `json:"maxConcurrent,omitempty"`
}

// UIMode selects how a UI test is executed.
type UIMode string

const (
	ModeAuto    UIMode = "auto"
	ModeBrowser UIMode = "browser"
	ModeHTTP    UIMode = "http"
)

// Viewport is the browser window size in CSS pixels.
type Viewport struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// UIConfig describes a page and the ordered steps run against it. Timeout is
// the navigation timeout in milliseconds.
type UIConfig struct {
	URL                  string            `json:"url"`
	Mode                 UIMode            `json:"mode,omitempty"`
	Viewport             Viewport          `json:"viewport,omitempty"`
	Headers              map[string]string `json:"headers,omitempty"`
	UserAgent            string            `json:"userAgent,omitempty"`
	WaitUntil            string            `json:"waitUntil,omitempty"`
	Timeout              int               `json:"timeout,omitempty"`
	ScreenshotOnComplete bool              `json:"screenshotOnComplete,omitempty"`
	Steps                []StepSpec        `json:"steps,omitempty"`
}

// AssertionType names one of the supported response checks.
type AssertionType string

const (
	AssertStatus       AssertionType = "status"
	AssertJSON         AssertionType = "json"
	AssertContains     AssertionType = "contains"
	AssertNotContains  AssertionType = "notContains"
	AssertHeader       AssertionType = "header"
	AssertResponseTime AssertionType = "responseTime"
	AssertRegex        AssertionType = "regex"
	AssertNotEmpty     AssertionType = "notEmpty"
	AssertLength       AssertionType = "length"
	AssertGreaterThan  AssertionType = "greaterThan"
	AssertLessThan     AssertionType = "lessThan"
	AssertTypeOf       AssertionType = "type"
)

// AssertionSpec is one declarative check against an HTTP response.
type AssertionSpec struct {
	Type     AssertionType `json:"type"`
	Path     string        `json:"path,omitempty"`
	Operator string        `json:"operator,omitempty"`
	Expected any           `json:"expected"`
	Header   string        `json:"header,omitempty"`
}

// StepSpec is one UI action. Only Action is always required; the remaining
// fields are read by the actions that need them. Timeout, Duration and Delay
// are in milliseconds.
type StepSpec struct {
	Action      string `json:"action"`
	Selector    string `json:"selector,omitempty"`
	Value       string `json:"value,omitempty"`
	Timeout     int    `json:"timeout,omitempty"`
	Critical    *bool  `json:"critical,omitempty"`
	Description string `json:"description,omitempty"`

	Expected  any      `json:"expected,omitempty"`
	Exact     bool     `json:"exact,omitempty"`
	Operator  string   `json:"operator,omitempty"`
	Attribute string   `json:"attribute,omitempty"`
	Duration  int      `json:"duration,omitempty"`
	Visible   *bool    `json:"visible,omitempty"`
	WaitUntil string   `json:"waitUntil,omitempty"`
	Delay     int      `json:"delay,omitempty"`
	FullPage  *bool    `json:"fullPage,omitempty"`
	Path      string   `json:"path,omitempty"`
	X         int      `json:"x,omitempty"`
	Y         int      `json:"y,omitempty"`
	Key       string   `json:"key,omitempty"`
	Script    string   `json:"script,omitempty"`
	Files     []string `json:"files,omitempty"`
}

// IsCritical reports whether a failure of this step aborts the remaining
// steps. Steps are critical unless explicitly marked otherwise.
func (s StepSpec) IsCritical() bool {
	return s.Critical == nil || *s.Critical
}

// Label is the human-readable name used in step messages.
func (s StepSpec) Label() string {
	if s.Description != "" {
		return s.Description
	}
	return s.Action
}
