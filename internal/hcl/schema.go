package hcl

import "github.com/zclconf/go-cty/cty"

// file is the top-level structure of a test-case file.
type file struct {
	APITests  []*apiTest  `hcl:"api_test,block"`
	LoadTests []*loadTest `hcl:"load_test,block"`
	UITests   []*uiTest   `hcl:"ui_test,block"`
}

type apiTest struct {
	Name        string            `hcl:"name,label"`
	URL         string            `hcl:"url"`
	Method      string            `hcl:"method,optional"`
	Headers     map[string]string `hcl:"headers,optional"`
	QueryParams map[string]string `hcl:"query_params,optional"`
	Body        cty.Value         `hcl:"body,optional"`
	Timeout     int               `hcl:"timeout,optional"`
	Assertions  []*assertion      `hcl:"assertion,block"`
}

type assertion struct {
	Type     string    `hcl:"type"`
	Path     string    `hcl:"path,optional"`
	Operator string    `hcl:"operator,optional"`
	Expected cty.Value `hcl:"expected,optional"`
	Header   string    `hcl:"header,optional"`
}

type loadTest struct {
	Name           string            `hcl:"name,label"`
	Target         string            `hcl:"target"`
	Duration       int               `hcl:"duration,optional"`
	ArrivalRate    int               `hcl:"arrival_rate,optional"`
	RampUpDuration int               `hcl:"ramp_up_duration,optional"`
	Method         string            `hcl:"method,optional"`
	Headers        map[string]string `hcl:"headers,optional"`
	Body           cty.Value         `hcl:"body,optional"`
	Timeout        int               `hcl:"timeout,optional"`
	MaxConcurrent  int               `hcl:"max_concurrent,optional"`
}

type uiTest struct {
	Name                 string            `hcl:"name,label"`
	URL                  string            `hcl:"url"`
	Mode                 string            `hcl:"mode,optional"`
	Viewport             *viewport         `hcl:"viewport,block"`
	Headers              map[string]string `hcl:"headers,optional"`
	UserAgent            string            `hcl:"user_agent,optional"`
	WaitUntil            string            `hcl:"wait_until,optional"`
	Timeout              int               `hcl:"timeout,optional"`
	ScreenshotOnComplete bool              `hcl:"screenshot_on_complete,optional"`
	Steps                []*step           `hcl:"step,block"`
}

type viewport struct {
	Width  int `hcl:"width,optional"`
	Height int `hcl:"height,optional"`
}

type step struct {
	Action      string    `hcl:"action"`
	Selector    string    `hcl:"selector,optional"`
	Value       string    `hcl:"value,optional"`
	Timeout     int       `hcl:"timeout,optional"`
	Critical    *bool     `hcl:"critical,optional"`
	Description string    `hcl:"description,optional"`
	Expected    cty.Value `hcl:"expected,optional"`
	Exact       bool      `hcl:"exact,optional"`
	Operator    string    `hcl:"operator,optional"`
	Attribute   string    `hcl:"attribute,optional"`
	Duration    int       `hcl:"duration,optional"`
	Visible     *bool     `hcl:"visible,optional"`
	WaitUntil   string    `hcl:"wait_until,optional"`
	Delay       int       `hcl:"delay,optional"`
	FullPage    *bool     `hcl:"full_page,optional"`
	Path        string    `hcl:"path,optional"`
	X           int       `hcl:"x,optional"`
	Y           int       `hcl:"y,optional"`
	Key         string    `hcl:"key,optional"`
	Script      string    `hcl:"script,optional"`
	Files       []string  `hcl:"files,optional"`
}
