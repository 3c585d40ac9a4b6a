package ui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/testrig/internal/model"
	"github.com/vk/testrig/internal/progress"
)

const loginPage = `<!doctype html>
<html>
<head><title>Login | Demo</title></head>
<body>
  <form id="login-form">
    <label for="user">Username</label>
    <input id="user" name="user" placeholder="Your name">
    <input id="remember" type="checkbox">
    <select id="lang"><option value="en">English</option></select>
    <button id="submit" type="submit" data-state="idle">Sign in</button>
  </form>
  <ul><li class="item">a</li><li class="item">b</li><li class="item">c</li></ul>
</body>
</html>`

func nonCritical() *bool {
	f := false
	return &f
}

func newBrowserEngine(page *fakePage) *Engine {
	return New(&fakeBrowser{available: true, page: page})
}

func TestSelectMode(t *testing.T) {
	available := New(&fakeBrowser{available: true})
	missing := New(&fakeBrowser{available: false})

	mode, err := available.SelectMode(model.ModeAuto)
	require.NoError(t, err)
	assert.Equal(t, model.ModeBrowser, mode)

	mode, err = missing.SelectMode("")
	require.NoError(t, err)
	assert.Equal(t, model.ModeHTTP, mode)

	mode, err = available.SelectMode(model.ModeHTTP)
	require.NoError(t, err)
	assert.Equal(t, model.ModeHTTP, mode)

	_, err = missing.SelectMode(model.ModeBrowser)
	assert.ErrorIs(t, err, ErrBrowserUnavailable)

	_, err = New(nil).SelectMode(model.ModeBrowser)
	assert.ErrorIs(t, err, ErrBrowserUnavailable)

	_, err = available.SelectMode("desktop")
	assert.Error(t, err)
}

func TestExecute_BrowserModeUnavailableIsConfigError(t *testing.T) {
	res := New(&fakeBrowser{}).Execute(context.Background(), &model.UIConfig{
		URL:   "http://app.test/",
		Mode:  model.ModeBrowser,
		Steps: []model.StepSpec{{Action: "click", Selector: "#submit"}},
	}, nil)

	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage(), "not available")
	require.NotNil(t, res.UIPayload)
	assert.Equal(t, model.ModeBrowser, res.Mode)
	assert.NotNil(t, res.Steps)
	assert.Empty(t, res.Steps)
}

func TestExecute_AllStepsPass(t *testing.T) {
	page := newFakePage(loginPage)
	page.eval = float64(3)
	for i := 0; i < 25; i++ {
		page.console = append(page.console, model.ConsoleEntry{Type: "log", Text: fmt.Sprint(i)})
	}

	res := newBrowserEngine(page).Execute(context.Background(), &model.UIConfig{
		URL:      "http://app.test/login",
		Viewport: model.Viewport{Width: 800},
		Steps: []model.StepSpec{
			{Action: "fill", Selector: "placeholder=your name", Value: "alice"},
			{Action: "type", Selector: "#user", Value: "bob"},
			{Action: "check", Selector: "#remember"},
			{Action: "select", Selector: "#lang", Value: "en"},
			{Action: "click", Selector: "role=button[name=sign in]"},
			{Action: "dblclick", Selector: "nth=2:.item"},
			{Action: "assertText", Selector: "#submit", Expected: "Sign", Description: "button label"},
			{Action: "assertText", Selector: "#submit", Expected: "Sign in", Exact: true},
			{Action: "assertTitle", Expected: "Login"},
			{Action: "assertUrl", Expected: "/login"},
			{Action: "assertCount", Selector: ".item", Expected: 3},
			{Action: "assertCount", Selector: ".item", Expected: 2, Operator: "greaterThan"},
			{Action: "assertAttribute", Selector: "#submit", Attribute: "data-state", Expected: "idle"},
			{Action: "assertVisible", Selector: "#login-form"},
			{Action: "assertNotExists", Selector: "#logout"},
			{Action: "waitForSelector", Selector: "text=Sign in"},
			{Action: "waitForNavigation", Expected: "**/login"},
			{Action: "scroll", Y: 200},
			{Action: "keyboard", Key: "Enter"},
			{Action: "evaluate", Script: "1+2", Expected: 3.0},
			{Action: "wait", Duration: 1},
		},
	}, nil)

	require.True(t, res.Success, res.ErrorMessage())
	assert.Nil(t, res.Error)
	assert.Equal(t, model.ModeBrowser, res.Mode)
	require.Len(t, res.Steps, 21)
	for _, step := range res.Steps {
		assert.True(t, step.Success, "%s: %s", step.Action, step.Error)
	}
	assert.Equal(t, "[PASS] button label succeeded", res.Steps[6].Message)
	assert.Equal(t, map[string]any{"count": 3}, res.Steps[10].Detail)
	assert.Equal(t, map[string]any{"result": float64(3)}, res.Steps[19].Detail)

	require.NotNil(t, res.Navigation)
	assert.Equal(t, 200, res.Navigation.Status)
	assert.Equal(t, "http://app.test/login", res.Navigation.URL)
	assert.Empty(t, res.Screenshot, "no screenshot unless requested or failed")
	require.NotNil(t, res.Performance)
	assert.Equal(t, int64(12), *res.Performance.DOMContentLoaded)
	require.Len(t, res.Console, consoleLimit)
	assert.Equal(t, "5", res.Console[0].Text)

	assert.True(t, page.closed)
	assert.Equal(t, model.Viewport{Width: 800, Height: defaultHeight}, page.opts.Viewport)
	assert.Contains(t, page.Calls(), "navigate http://app.test/login domcontentloaded")
	assert.Contains(t, page.Calls(), "fill=alice placeholder=your name")
	assert.Contains(t, page.Calls(), "click2 nth=2:.item")
	assert.Contains(t, page.Calls(), "checked=true #remember")
}

func TestExecute_CriticalFailureAborts(t *testing.T) {
	page := newFakePage(loginPage)

	res := newBrowserEngine(page).Execute(context.Background(), &model.UIConfig{
		URL: "http://app.test/",
		Steps: []model.StepSpec{
			{Action: "click", Selector: "#missing", Timeout: 30},
			{Action: "click", Selector: "#submit"},
		},
	}, nil)

	assert.False(t, res.Success)
	require.Len(t, res.Steps, 1)
	assert.False(t, res.Steps[0].Success)
	assert.Contains(t, res.Steps[0].Error, "timeout 30ms exceeded")
	assert.Equal(t, "1 step(s) failed", res.ErrorMessage())
	assert.NotEmpty(t, res.Screenshot, "failed runs capture a screenshot")
	assert.NotContains(t, page.Calls(), "click1 #submit")
	assert.True(t, page.closed)
}

func TestExecute_NonCriticalFailureContinues(t *testing.T) {
	page := newFakePage(loginPage)

	res := newBrowserEngine(page).Execute(context.Background(), &model.UIConfig{
		URL: "http://app.test/",
		Steps: []model.StepSpec{
			{Action: "assertText", Selector: "#submit", Expected: "Register", Critical: nonCritical()},
			{Action: "click", Selector: "#submit"},
		},
	}, nil)

	assert.False(t, res.Success)
	require.Len(t, res.Steps, 2)
	assert.False(t, res.Steps[0].Success)
	assert.True(t, res.Steps[1].Success)
	assert.Contains(t, page.Calls(), "click1 #submit")
}

func TestExecute_StepFailures(t *testing.T) {
	cases := []struct {
		name string
		step model.StepSpec
		want string
	}{
		{"unknown action", model.StepSpec{Action: "teleport"}, "unknown step action: teleport"},
		{"exact text", model.StepSpec{Action: "assertText", Selector: "#submit", Expected: "Sign", Exact: true}, "text mismatch"},
		{"count", model.StepSpec{Action: "assertCount", Selector: ".item", Expected: 5, Operator: "lessThan"}, "expected < 5, actual 3"},
		{"attribute", model.StepSpec{Action: "assertAttribute", Selector: "#submit", Attribute: "disabled", Expected: "true"}, "attribute assertion failed"},
		{"not exists", model.StepSpec{Action: "assertNotExists", Selector: ".item"}, "found 3"},
		{"visible", model.StepSpec{Action: "assertVisible", Selector: "#nope"}, "not visible"},
		{"evaluate", model.StepSpec{Action: "evaluate", Script: "x", Expected: "y"}, "script result mismatch"},
		{"url", model.StepSpec{Action: "assertUrl", Expected: "http://other.test/", Exact: true}, "URL mismatch"},
		{"navigation", model.StepSpec{Action: "waitForNavigation", Expected: "**/done", Timeout: 20}, "timeout 20ms exceeded"},
		{"no selector", model.StepSpec{Action: "click"}, "requires a selector"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page := newFakePage(loginPage)
			res := newBrowserEngine(page).Execute(context.Background(), &model.UIConfig{
				URL:   "http://app.test/",
				Steps: []model.StepSpec{tc.step},
			}, nil)
			require.Len(t, res.Steps, 1)
			assert.False(t, res.Steps[0].Success)
			assert.Contains(t, res.Steps[0].Error, tc.want)
			assert.Contains(t, res.Steps[0].Message, "[FAIL]")
		})
	}
}

func TestExecute_ScreenshotStepWritesFile(t *testing.T) {
	page := newFakePage(loginPage)
	path := filepath.Join(t.TempDir(), "shot.png")

	res := newBrowserEngine(page).Execute(context.Background(), &model.UIConfig{
		URL:                  "http://app.test/",
		ScreenshotOnComplete: true,
		Steps:                []model.StepSpec{{Action: "screenshot", Path: path, FullPage: nonCritical()}},
	}, nil)

	require.True(t, res.Success, res.ErrorMessage())
	assert.Equal(t, "cG5n", res.Steps[0].Detail["screenshot"])
	assert.Equal(t, "cG5n", res.Screenshot)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	assert.Contains(t, page.Calls(), "screenshot full=false")
}

func TestExecute_NavigationFailure(t *testing.T) {
	page := newFakePage(loginPage)
	page.navErr = errors.New("net::ERR_NAME_NOT_RESOLVED")

	res := newBrowserEngine(page).Execute(context.Background(), &model.UIConfig{
		URL:   "http://nowhere.test/",
		Steps: []model.StepSpec{{Action: "click", Selector: "#submit"}},
	}, nil)

	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage(), "navigation failed")
	assert.Empty(t, res.Steps)
	assert.True(t, page.closed)
}

func TestExecute_DriverPanicBecomesFailedResult(t *testing.T) {
	page := newFakePage(loginPage)
	page.panicOn = "#boom"

	res := newBrowserEngine(page).Execute(context.Background(), &model.UIConfig{
		URL: "http://app.test/",
		Steps: []model.StepSpec{
			{Action: "click", Selector: "#submit"},
			{Action: "assertCount", Selector: "#boom", Expected: 1},
		},
	}, nil)

	assert.False(t, res.Success)
	require.Len(t, res.Steps, 2)
	assert.True(t, res.Steps[0].Success)
	assert.Equal(t, "driver crashed", res.Steps[1].Error)
	assert.True(t, page.closed)
}

func TestExecute_OpenFailure(t *testing.T) {
	res := New(&fakeBrowser{available: true, openErr: errors.New("chrome crashed")}).
		Execute(context.Background(), &model.UIConfig{URL: "http://app.test/"}, nil)

	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorMessage(), "chrome crashed")
	assert.Equal(t, model.ModeBrowser, res.Mode)
}

func TestExecute_PublishesProgress(t *testing.T) {
	page := newFakePage(loginPage)
	var mu sync.Mutex
	var stepCounts []int
	sink := progress.SinkFunc(func(_ context.Context, r *model.ExecutionResult) {
		mu.Lock()
		stepCounts = append(stepCounts, len(r.Steps))
		mu.Unlock()
	})

	newBrowserEngine(page).Execute(context.Background(), &model.UIConfig{
		URL: "http://app.test/",
		Steps: []model.StepSpec{
			{Action: "click", Selector: "#submit"},
			{Action: "focus", Selector: "#user"},
		},
	}, sink)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 2}, stepCounts)
}

func TestExecute_HTTPMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(loginPage))
	}))
	defer srv.Close()

	res := New(&fakeBrowser{available: false}).Execute(context.Background(), &model.UIConfig{
		URL: srv.URL,
		Steps: []model.StepSpec{
			{Action: "assertText", Expected: "Register"},
			{Action: "assertVisible", Selector: "#login-form"},
			{Action: "assertTitle", Expected: "Demo"},
			{Action: "assertNotExists", Selector: "#anything"},
			{Action: "assertUrl", Expected: "nowhere"},
			{Action: "click", Selector: "#submit"},
			{Action: "assertVisible", Selector: ".sidebar"},
		},
	}, nil)

	assert.Equal(t, model.ModeHTTP, res.Mode)
	assert.False(t, res.Success)
	assert.Equal(t, "2 step(s) failed", res.ErrorMessage())
	require.Len(t, res.Steps, 7, "HTTP mode never aborts")

	assert.False(t, res.Steps[0].Success)
	assert.True(t, res.Steps[1].Success)
	assert.True(t, res.Steps[2].Success)
	assert.True(t, res.Steps[3].Success)
	assert.True(t, res.Steps[4].Success)
	assert.True(t, res.Steps[5].Success)
	assert.True(t, res.Steps[5].Skipped)
	assert.False(t, res.Steps[6].Success)

	require.NotNil(t, res.Navigation)
	assert.Equal(t, http.StatusOK, res.Navigation.Status)
	assert.Equal(t, srv.URL, res.Navigation.URL)
	assert.Equal(t, "text/html; charset=utf-8", res.Navigation.ContentType)
	assert.Equal(t, len(loginPage), res.Navigation.ContentLength)
}

func TestExecute_HTTPModeJSONPageKeepsKeyOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "ok", "build": 42}`))
	}))
	defer srv.Close()

	res := New(nil).Execute(context.Background(), &model.UIConfig{
		URL:  srv.URL,
		Mode: model.ModeHTTP,
		Steps: []model.StepSpec{
			{Action: "assertText", Expected: `"status":"ok","build":42`},
		},
	}, nil)

	require.Len(t, res.Steps, 1)
	assert.True(t, res.Steps[0].Success, res.Steps[0].Error)
	assert.True(t, res.Success)
}

func TestEvaluateHTTPStep_AssertVisibleRequiresSelector(t *testing.T) {
	res := evaluateHTTPStep("<html><body>anything</body></html>", "", model.StepSpec{Action: "assertVisible"})

	assert.False(t, res.Success)
	assert.Equal(t, "step requires a selector", res.Error)
	assert.Nil(t, res.Selector)
}

func TestExecute_HTTPModeTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	res := New(nil).Execute(context.Background(), &model.UIConfig{
		URL:   url,
		Mode:  model.ModeHTTP,
		Steps: []model.StepSpec{{Action: "assertTitle", Expected: "x"}},
	}, nil)

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.ErrorMessage())
	assert.Equal(t, model.ModeHTTP, res.Mode)
	assert.Empty(t, res.Steps)
}

func TestGlobPattern(t *testing.T) {
	re, err := globPattern("**/*")
	require.NoError(t, err)
	assert.True(t, re.MatchString("http://app.test/login"))

	re, err = globPattern("http://app.test/*/edit")
	require.NoError(t, err)
	assert.True(t, re.MatchString("http://app.test/42/edit"))
	assert.False(t, re.MatchString("http://app.test/a/b/edit"))
}
