package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/vk/testrig/internal/httpclient"
	"github.com/vk/testrig/internal/jsvalue"
	"github.com/vk/testrig/internal/locator"
	"github.com/vk/testrig/internal/model"
	"github.com/vk/testrig/internal/progress"
)

const httpMaxRedirects = 5

// selectorPunctuation is stripped from a selector before the HTTP-mode
// visibility check looks for it in the raw HTML.
var selectorPunctuation = regexp.MustCompile(`[#.]`)

// runHTTP fetches the page once and evaluates the assertion steps against
// its HTML. Other actions are skipped and failures never abort the run.
func (e *Engine) runHTTP(ctx context.Context, logger *slog.Logger, cfg *model.UIConfig, sink progress.Sink) *model.ExecutionResult {
	start := time.Now()

	client := httpclient.New(httpclient.Options{
		Timeout:      millis(cfg.Timeout, defaultNavTimeout),
		MaxRedirects: httpMaxRedirects,
	})
	defer httpclient.Destroy(client)

	req, err := httpclient.Request{Method: "GET", URL: cfg.URL, Header: cfg.Headers}.Build(ctx)
	if err != nil {
		return failed(start, model.ModeHTTP, nil, err)
	}
	if cfg.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	captured, err := httpclient.Do(client, req)
	if err != nil {
		return failed(start, model.ModeHTTP, nil, err)
	}

	page := pageText(captured)
	title := ""
	if doc, err := locator.ParseDocumentString(page); err == nil {
		title = doc.Title()
	} else {
		logger.Debug("Page is not parseable HTML.", "error", err)
	}

	payload := &model.UIPayload{
		Mode: model.ModeHTTP,
		Navigation: &model.Navigation{
			Status:        captured.Status,
			URL:           cfg.URL,
			ContentType:   captured.Header["content-type"],
			ContentLength: len(page),
		},
		Steps: []model.StepResult{},
	}
	snapshot := func(success bool, failure string) *model.ExecutionResult {
		result := model.NewResult(success, time.Since(start), failure)
		p := *payload
		p.Steps = append([]model.StepResult{}, payload.Steps...)
		result.UIPayload = &p
		return result
	}
	sink.Publish(ctx, snapshot(true, ""))

	for _, step := range cfg.Steps {
		payload.Steps = append(payload.Steps, evaluateHTTPStep(page, title, step))
		sink.Publish(ctx, snapshot(true, ""))
	}

	failure := ""
	if n := countFailed(payload.Steps); n > 0 {
		failure = fmt.Sprintf("%d step(s) failed", n)
	}
	return snapshot(failure == "", failure)
}

// pageText is the response body as text. JSON bodies are compacted with
// their member order intact.
func pageText(c *httpclient.Captured) string {
	decoded := c.Decoded()
	if s, ok := decoded.(string); ok {
		return s
	}
	return jsvalue.StringifySource(c.Raw, decoded)
}

func evaluateHTTPStep(page, title string, step model.StepSpec) model.StepResult {
	res := model.StepResult{Action: step.Action, Selector: selectorOf(step)}
	start := time.Now()
	defer func() { res.Duration = time.Since(start).Milliseconds() }()

	var err error
	switch step.Action {
	case "assertText":
		expected := jsvalue.String(step.Expected)
		if !strings.Contains(page, expected) {
			err = fmt.Errorf("text not found in page HTML: %q", expected)
		}
	case "assertTitle":
		expected := jsvalue.String(step.Expected)
		if !strings.Contains(title, expected) {
			err = fmt.Errorf("title mismatch: expected to contain %q, actual %q", expected, title)
		}
	case "assertVisible":
		if step.Selector == "" {
			err = errors.New("step requires a selector")
		} else if !strings.Contains(page, selectorPunctuation.ReplaceAllString(step.Selector, "")) {
			err = fmt.Errorf("page may not contain element: %s", step.Selector)
		}
	case "assertNotExists", "assertUrl":
	default:
		res.Success = true
		res.Skipped = true
		res.Message = fmt.Sprintf("[SKIP] %s is not supported in HTTP mode", step.Action)
		return res
	}

	if err != nil {
		res.Error = err.Error()
		res.Message = fmt.Sprintf("[FAIL] [HTTP] %s: %s", step.Label(), res.Error)
		return res
	}
	res.Success = true
	res.Message = fmt.Sprintf("[PASS] [HTTP] %s passed", step.Label())
	return res
}
