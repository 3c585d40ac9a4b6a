package hcl

import (
	"fmt"

	"github.com/vk/testrig/internal/model"
)

// translate converts decoded blocks into test cases, API tests first, then
// load tests, then UI tests, each in file order.
func translate(f *file) ([]*model.TestCase, error) {
	var cases []*model.TestCase

	for _, t := range f.APITests {
		cfg, err := translateAPI(t)
		if err != nil {
			return nil, fmt.Errorf("api_test %q: %w", t.Name, err)
		}
		cases = append(cases, &model.TestCase{Name: t.Name, Type: model.TypeAPI, API: cfg})
	}
	for _, t := range f.LoadTests {
		cfg, err := translateLoad(t)
		if err != nil {
			return nil, fmt.Errorf("load_test %q: %w", t.Name, err)
		}
		cases = append(cases, &model.TestCase{Name: t.Name, Type: model.TypeLoad, Load: cfg})
	}
	for _, t := range f.UITests {
		cfg, err := translateUI(t)
		if err != nil {
			return nil, fmt.Errorf("ui_test %q: %w", t.Name, err)
		}
		cases = append(cases, &model.TestCase{Name: t.Name, Type: model.TypeUI, UI: cfg})
	}
	return cases, nil
}

func translateAPI(t *apiTest) (*model.APIConfig, error) {
	body, err := ctyToNative(t.Body)
	if err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	cfg := &model.APIConfig{
		URL:         t.URL,
		Method:      t.Method,
		Headers:     t.Headers,
		Body:        body,
		QueryParams: t.QueryParams,
		Timeout:     t.Timeout,
	}
	for i, a := range t.Assertions {
		expected, err := ctyToNative(a.Expected)
		if err != nil {
			return nil, fmt.Errorf("assertion %d: expected: %w", i, err)
		}
		cfg.Assertions = append(cfg.Assertions, model.AssertionSpec{
			Type:     model.AssertionType(a.Type),
			Path:     a.Path,
			Operator: a.Operator,
			Expected: expected,
			Header:   a.Header,
		})
	}
	return cfg, nil
}

func translateLoad(t *loadTest) (*model.LoadConfig, error) {
	body, err := ctyToNative(t.Body)
	if err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	return &model.LoadConfig{
		Target:         t.Target,
		Duration:       t.Duration,
		ArrivalRate:    t.ArrivalRate,
		RampUpDuration: t.RampUpDuration,
		Method:         t.Method,
		Headers:        t.Headers,
		Body:           body,
		Timeout:        t.Timeout,
		MaxConcurrent:  t.MaxConcurrent,
	}, nil
}

func translateUI(t *uiTest) (*model.UIConfig, error) {
	cfg := &model.UIConfig{
		URL:                  t.URL,
		Mode:                 model.UIMode(t.Mode),
		Headers:              t.Headers,
		UserAgent:            t.UserAgent,
		WaitUntil:            t.WaitUntil,
		Timeout:              t.Timeout,
		ScreenshotOnComplete: t.ScreenshotOnComplete,
	}
	if t.Viewport != nil {
		cfg.Viewport = model.Viewport{Width: t.Viewport.Width, Height: t.Viewport.Height}
	}
	for i, s := range t.Steps {
		expected, err := ctyToNative(s.Expected)
		if err != nil {
			return nil, fmt.Errorf("step %d: expected: %w", i, err)
		}
		cfg.Steps = append(cfg.Steps, model.StepSpec{
			Action:      s.Action,
			Selector:    s.Selector,
			Value:       s.Value,
			Timeout:     s.Timeout,
			Critical:    s.Critical,
			Description: s.Description,
			Expected:    expected,
			Exact:       s.Exact,
			Operator:    s.Operator,
			Attribute:   s.Attribute,
			Duration:    s.Duration,
			Visible:     s.Visible,
			WaitUntil:   s.WaitUntil,
			Delay:       s.Delay,
			FullPage:    s.FullPage,
			Path:        s.Path,
			X:           s.X,
			Y:           s.Y,
			Key:         s.Key,
			Script:      s.Script,
			Files:       s.Files,
		})
	}
	return cfg, nil
}
