package ui

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vk/testrig/internal/jsvalue"
	"github.com/vk/testrig/internal/model"
)

const (
	defaultStepTimeout = 5 * time.Second
	defaultNavWait     = 10 * time.Second
	defaultWait        = time.Second
	defaultTypeDelay   = 50 * time.Millisecond
	defaultURLGlob     = "**/*"
)

// stepRunner executes single steps against a live page.
type stepRunner struct {
	page Page
	poll time.Duration
}

// run executes step and never fails: every outcome is a StepResult.
func (r *stepRunner) run(ctx context.Context, step model.StepSpec) (res model.StepResult) {
	start := time.Now()
	res = model.StepResult{Action: step.Action, Selector: selectorOf(step)}

	defer func() {
		if p := recover(); p != nil {
			res.Success = false
			res.Error = fmt.Sprint(p)
			res.Message = fmt.Sprintf("[FAIL] %s failed: %s", step.Label(), res.Error)
		}
		res.Duration = time.Since(start).Milliseconds()
	}()

	detail, err := r.perform(ctx, step)
	if err != nil {
		res.Error = err.Error()
		res.Message = fmt.Sprintf("[FAIL] %s failed: %s", step.Label(), res.Error)
		return res
	}
	res.Success = true
	res.Detail = detail
	res.Message = fmt.Sprintf("[PASS] %s succeeded", step.Label())
	return res
}

func (r *stepRunner) perform(ctx context.Context, step model.StepSpec) (map[string]any, error) {
	timeout := millis(step.Timeout, defaultStepTimeout)
	sel := step.Selector

	switch step.Action {
	case "click":
		return nil, r.withElement(ctx, step, func(ctx context.Context) error {
			return r.page.Click(ctx, sel, 1)
		})
	case "dblclick":
		return nil, r.withElement(ctx, step, func(ctx context.Context) error {
			return r.page.Click(ctx, sel, 2)
		})
	case "fill":
		return nil, r.withElement(ctx, step, func(ctx context.Context) error {
			return r.page.Fill(ctx, sel, step.Value)
		})
	case "type":
		delay := millis(step.Delay, defaultTypeDelay)
		return nil, r.withElement(ctx, step, func(ctx context.Context) error {
			return r.page.Type(ctx, sel, step.Value, delay)
		})
	case "select":
		return nil, r.withElement(ctx, step, func(ctx context.Context) error {
			return r.page.Select(ctx, sel, step.Value)
		})
	case "hover":
		return nil, r.withElement(ctx, step, func(ctx context.Context) error {
			return r.page.Hover(ctx, sel)
		})
	case "focus":
		return nil, r.withElement(ctx, step, func(ctx context.Context) error {
			return r.page.Focus(ctx, sel)
		})
	case "scrollToElement":
		return nil, r.withElement(ctx, step, func(ctx context.Context) error {
			return r.page.ScrollIntoView(ctx, sel)
		})
	case "check", "uncheck":
		return nil, r.withElement(ctx, step, func(ctx context.Context) error {
			return r.page.SetChecked(ctx, sel, step.Action == "check")
		})
	case "upload":
		files := step.Files
		if step.Value != "" {
			files = []string{step.Value}
		}
		return nil, r.withElement(ctx, step, func(ctx context.Context) error {
			return r.page.Upload(ctx, sel, files)
		})

	case "wait":
		return nil, sleep(ctx, millis(step.Duration, defaultWait))

	case "waitForSelector":
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if step.Visible == nil || *step.Visible {
			return nil, r.waitFor(ctx, timeout, "visible "+sel, func(ctx context.Context) (bool, error) {
				return r.page.Visible(ctx, sel)
			})
		}
		return nil, r.waitAttached(ctx, timeout, sel)

	case "waitForNavigation":
		return r.waitForURL(ctx, step)

	case "assertText":
		var text string
		err := r.withElement(ctx, step, func(ctx context.Context) error {
			var err error
			text, err = r.page.Text(ctx, sel)
			return err
		})
		if err != nil {
			return nil, err
		}
		expected := jsvalue.String(step.Expected)
		trimmed := strings.TrimSpace(text)
		if step.Exact && trimmed != expected {
			return nil, fmt.Errorf("text mismatch: expected %q, actual %q", expected, trimmed)
		}
		if !step.Exact && !strings.Contains(text, expected) {
			return nil, fmt.Errorf("text assertion failed: expected to contain %q, actual %q", expected, trimmed)
		}
		return map[string]any{"actualText": trimmed}, nil

	case "assertVisible":
		visible, err := r.page.Visible(ctx, sel)
		if err != nil {
			return nil, err
		}
		if !visible {
			return nil, fmt.Errorf("element is not visible: %s", sel)
		}
		return nil, nil

	case "assertNotExists":
		count, err := r.page.Count(ctx, sel)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("element should not exist: %s, found %d", sel, count)
		}
		return nil, nil

	case "assertUrl":
		current, err := r.page.URL(ctx)
		if err != nil {
			return nil, err
		}
		expected := jsvalue.String(step.Expected)
		if step.Exact && current != expected {
			return nil, fmt.Errorf("URL mismatch: expected %q, actual %q", expected, current)
		}
		if !step.Exact && !strings.Contains(current, expected) {
			return nil, fmt.Errorf("URL assertion failed: expected to contain %q, actual %q", expected, current)
		}
		return map[string]any{"currentUrl": current}, nil

	case "assertTitle":
		title, err := r.page.Title(ctx)
		if err != nil {
			return nil, err
		}
		expected := jsvalue.String(step.Expected)
		if !strings.Contains(title, expected) {
			return nil, fmt.Errorf("title assertion failed: expected to contain %q, actual %q", expected, title)
		}
		return map[string]any{"title": title}, nil

	case "assertCount":
		count, err := r.page.Count(ctx, sel)
		if err != nil {
			return nil, err
		}
		if err := compareCount(count, jsvalue.Number(step.Expected), step.Operator); err != nil {
			return nil, err
		}
		return map[string]any{"count": count}, nil

	case "assertAttribute":
		var value string
		var present bool
		err := r.withElement(ctx, step, func(ctx context.Context) error {
			var err error
			value, present, err = r.page.Attribute(ctx, sel, step.Attribute)
			return err
		})
		if err != nil {
			return nil, err
		}
		var actual any
		if present {
			actual = value
		}
		if !jsvalue.StrictEqual(actual, step.Expected) {
			return nil, fmt.Errorf("attribute assertion failed: %s expected %q, actual %q",
				step.Attribute, jsvalue.String(step.Expected), jsvalue.String(actual))
		}
		return map[string]any{"attribute": step.Attribute, "value": actual}, nil

	case "screenshot":
		fullPage := step.FullPage == nil || *step.FullPage
		shot, err := r.page.Screenshot(ctx, fullPage)
		if err != nil {
			return nil, err
		}
		if step.Path != "" {
			if err := os.WriteFile(step.Path, shot, 0o644); err != nil {
				return nil, fmt.Errorf("failed to save screenshot: %w", err)
			}
		}
		return map[string]any{"screenshot": base64.StdEncoding.EncodeToString(shot)}, nil

	case "scroll":
		return nil, r.page.Scroll(ctx, step.X, step.Y)

	case "keyboard":
		return nil, r.page.Press(ctx, step.Key)

	case "evaluate":
		result, err := r.page.Evaluate(ctx, step.Script)
		if err != nil {
			return nil, err
		}
		if step.Expected != nil && !jsvalue.StrictEqual(result, step.Expected) {
			return nil, fmt.Errorf("script result mismatch: expected %s, actual %s",
				jsvalue.String(step.Expected), jsvalue.String(result))
		}
		return map[string]any{"result": result}, nil
	}
	return nil, fmt.Errorf("unknown step action: %s", step.Action)
}

// withElement waits until the step's locator matches, then runs act. Both
// share the step timeout.
func (r *stepRunner) withElement(ctx context.Context, step model.StepSpec, act func(context.Context) error) error {
	timeout := millis(step.Timeout, defaultStepTimeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := r.waitAttached(ctx, timeout, step.Selector); err != nil {
		return err
	}
	return act(ctx)
}

func (r *stepRunner) waitAttached(ctx context.Context, timeout time.Duration, sel string) error {
	if sel == "" {
		return fmt.Errorf("step requires a selector")
	}
	return r.waitFor(ctx, timeout, sel, func(ctx context.Context) (bool, error) {
		n, err := r.page.Count(ctx, sel)
		return n > 0, err
	})
}

func (r *stepRunner) waitForURL(ctx context.Context, step model.StepSpec) (map[string]any, error) {
	glob := defaultURLGlob
	if step.Expected != nil {
		glob = jsvalue.String(step.Expected)
	}
	pattern, err := globPattern(glob)
	if err != nil {
		return nil, fmt.Errorf("invalid URL pattern %q: %w", glob, err)
	}

	timeout := millis(step.Timeout, defaultNavWait)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var current string
	err = r.waitFor(ctx, timeout, "URL "+glob, func(ctx context.Context) (bool, error) {
		var err error
		current, err = r.page.URL(ctx)
		return err == nil && pattern.MatchString(current), err
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"currentUrl": current}, nil
}

// waitFor polls cond until it holds or ctx ends.
func (r *stepRunner) waitFor(ctx context.Context, timeout time.Duration, what string, cond func(context.Context) (bool, error)) error {
	for {
		ok, err := cond(ctx)
		if ok {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("timeout %dms exceeded waiting for %s", timeout.Milliseconds(), what)
		}
		if err != nil {
			return err
		}
		if sleep(ctx, r.poll) != nil {
			return fmt.Errorf("timeout %dms exceeded waiting for %s", timeout.Milliseconds(), what)
		}
	}
}

func compareCount(count int, expected float64, operator string) error {
	actual := float64(count)
	switch operator {
	case "greaterThan":
		if actual <= expected {
			return fmt.Errorf("count assertion failed: expected > %s, actual %d", jsvalue.String(expected), count)
		}
	case "lessThan":
		if actual >= expected {
			return fmt.Errorf("count assertion failed: expected < %s, actual %d", jsvalue.String(expected), count)
		}
	default:
		if actual != expected {
			return fmt.Errorf("count assertion failed: expected %s, actual %d", jsvalue.String(expected), count)
		}
	}
	return nil
}

func selectorOf(step model.StepSpec) *string {
	if step.Selector == "" {
		return nil
	}
	s := step.Selector
	return &s
}

func millis(v int, def time.Duration) time.Duration {
	if v > 0 {
		return time.Duration(v) * time.Millisecond
	}
	return def
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
