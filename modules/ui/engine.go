package ui

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/vk/testrig/internal/ctxlog"
	"github.com/vk/testrig/internal/model"
	"github.com/vk/testrig/internal/progress"
)

const (
	defaultNavTimeout = 30 * time.Second
	defaultWaitUntil  = "domcontentloaded"
	defaultWidth      = 1280
	defaultHeight     = 720
	consoleLimit      = 20
)

// Engine runs UI test configurations.
type Engine struct {
	browser Browser
	// poll is the interval at which waiting steps re-check the page.
	poll time.Duration
}

// New returns a UI engine using browser for browser mode. A nil browser is
// treated as unavailable.
func New(browser Browser) *Engine {
	return &Engine{browser: browser, poll: 100 * time.Millisecond}
}

func (e *Engine) browserAvailable() bool {
	return e.browser != nil && e.browser.Available()
}

// SelectMode resolves the configured mode against browser availability.
func (e *Engine) SelectMode(requested model.UIMode) (model.UIMode, error) {
	switch requested {
	case model.ModeHTTP:
		return model.ModeHTTP, nil
	case model.ModeBrowser:
		if !e.browserAvailable() {
			return model.ModeBrowser, fmt.Errorf("browser mode requested but %w", ErrBrowserUnavailable)
		}
		return model.ModeBrowser, nil
	case model.ModeAuto, "":
		if e.browserAvailable() {
			return model.ModeBrowser, nil
		}
		return model.ModeHTTP, nil
	}
	return requested, fmt.Errorf("unknown UI mode %q", requested)
}

// Execute runs the configured steps. The final result is published to sink
// along with a snapshot after navigation and after every step.
func (e *Engine) Execute(ctx context.Context, cfg *model.UIConfig, sink progress.Sink) *model.ExecutionResult {
	start := time.Now()
	sink = progress.OrDiscard(sink)

	mode, err := e.SelectMode(cfg.Mode)
	ctx, logger := ctxlog.With(ctx, "engine", "ui", "url", cfg.URL, "mode", mode)
	if err != nil {
		logger.Warn("Cannot run UI test.", "error", err)
		result := failed(start, mode, nil, err)
		sink.Publish(ctx, result)
		return result
	}

	var result *model.ExecutionResult
	if mode == model.ModeBrowser {
		result = e.runBrowser(ctx, logger, cfg, sink)
	} else {
		result = e.runHTTP(ctx, logger, cfg, sink)
	}
	logger.Info("UI test finished.", "success", result.Success, "steps", len(result.Steps))
	sink.Publish(ctx, result)
	return result
}

// session is the state of one browser-mode run.
type session struct {
	cfg   *model.UIConfig
	start time.Time
	nav   *model.Navigation
	steps []model.StepResult
}

func (s *session) snapshot(success bool, failure string) *model.ExecutionResult {
	result := model.NewResult(success, time.Since(s.start), failure)
	result.UIPayload = &model.UIPayload{
		Mode:       model.ModeBrowser,
		Navigation: s.nav,
		Steps:      append([]model.StepResult{}, s.steps...),
	}
	return result
}

func (e *Engine) runBrowser(ctx context.Context, logger *slog.Logger, cfg *model.UIConfig, sink progress.Sink) (result *model.ExecutionResult) {
	s := &session{cfg: cfg, start: time.Now(), steps: []model.StepResult{}}

	page, err := e.browser.Open(ctx, PageOptions{
		Viewport:  viewportOf(cfg.Viewport),
		UserAgent: cfg.UserAgent,
		Headers:   cfg.Headers,
	})
	if err != nil {
		return failed(s.start, model.ModeBrowser, s.steps, fmt.Errorf("failed to open browser: %w", err))
	}
	defer func() {
		if err := page.Close(); err != nil {
			logger.Warn("Failed to close browser.", "error", err)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("UI run aborted.", "panic", r)
			result = failed(s.start, model.ModeBrowser, s.steps, fmt.Errorf("browser failure: %v", r))
		}
	}()

	timeout := defaultNavTimeout
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Millisecond
	}
	waitUntil := cfg.WaitUntil
	if waitUntil == "" {
		waitUntil = defaultWaitUntil
	}

	navCtx, cancel := context.WithTimeout(ctx, timeout)
	status, err := page.Navigate(navCtx, cfg.URL, waitUntil)
	cancel()
	if err != nil {
		return failed(s.start, model.ModeBrowser, s.steps, fmt.Errorf("navigation failed: %w", err))
	}
	current, err := page.URL(ctx)
	if err != nil {
		current = cfg.URL
	}
	s.nav = &model.Navigation{Status: status, URL: current}
	logger.Debug("Navigated.", "status", status, "location", current)
	sink.Publish(ctx, s.snapshot(true, ""))

	runner := &stepRunner{page: page, poll: e.poll}
	for _, step := range cfg.Steps {
		res := runner.run(ctx, step)
		s.steps = append(s.steps, res)
		logger.Debug("Step finished.", "action", step.Action, "success", res.Success, "duration_ms", res.Duration)
		sink.Publish(ctx, s.snapshot(true, ""))
		if !res.Success && step.IsCritical() {
			logger.Debug("Critical step failed, aborting remaining steps.", "action", step.Action)
			break
		}
	}

	failedSteps := countFailed(s.steps)
	failure := ""
	if failedSteps > 0 {
		failure = fmt.Sprintf("%d step(s) failed", failedSteps)
	}
	result = s.snapshot(failedSteps == 0, failure)

	if cfg.ScreenshotOnComplete || failedSteps > 0 {
		if shot, err := page.Screenshot(ctx, true); err == nil {
			result.Screenshot = base64.StdEncoding.EncodeToString(shot)
		} else {
			logger.Warn("Failed to capture final screenshot.", "error", err)
		}
	}
	if perf, err := page.Performance(ctx); err == nil {
		result.Performance = perf
	}
	result.Console = lastN(page.Console(), consoleLimit)
	result.Errors = page.Errors()
	return result
}

// failed builds a result for a run that ended before or outside the step
// sequence. Steps recorded so far are kept.
func failed(start time.Time, mode model.UIMode, steps []model.StepResult, err error) *model.ExecutionResult {
	if steps == nil {
		steps = []model.StepResult{}
	}
	result := model.NewResult(false, time.Since(start), err.Error())
	result.UIPayload = &model.UIPayload{Mode: mode, Steps: steps}
	return result
}

func viewportOf(v model.Viewport) model.Viewport {
	if v.Width <= 0 {
		v.Width = defaultWidth
	}
	if v.Height <= 0 {
		v.Height = defaultHeight
	}
	return v
}

func countFailed(steps []model.StepResult) int {
	n := 0
	for _, s := range steps {
		if !s.Success {
			n++
		}
	}
	return n
}

func lastN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[len(items)-n:]
	}
	return items
}
