package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vk/testrig/internal/assertion"
	"github.com/vk/testrig/internal/ctxlog"
	"github.com/vk/testrig/internal/httpclient"
	"github.com/vk/testrig/internal/jsvalue"
	"github.com/vk/testrig/internal/model"
	"github.com/vk/testrig/internal/progress"
)

const defaultTimeout = 30 * time.Second

// Engine runs API test configurations. It holds no state between
// invocations.
type Engine struct{}

// New returns an API engine.
func New() *Engine {
	return &Engine{}
}

// Execute sends the configured request and evaluates its assertions. Every
// status code is a normal response; only a transport failure produces a
// result without assertions.
func (e *Engine) Execute(ctx context.Context, cfg *model.APIConfig, sink progress.Sink) *model.ExecutionResult {
	ctx, logger := ctxlog.With(ctx, "engine", "api", "url", cfg.URL)
	result := e.run(ctx, logger, cfg)
	progress.OrDiscard(sink).Publish(ctx, result)
	return result
}

func (e *Engine) run(ctx context.Context, logger *slog.Logger, cfg *model.APIConfig) *model.ExecutionResult {
	start := time.Now()

	timeout := defaultTimeout
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Millisecond
	}
	client := httpclient.New(httpclient.Options{Timeout: timeout})
	defer httpclient.Destroy(client)

	spec := httpclient.Request{
		Method: cfg.Method,
		URL:    cfg.URL,
		Header: cfg.Headers,
		Query:  cfg.QueryParams,
		Body:   cfg.Body,
	}
	reqSnapshot := snapshotRequest(spec)

	req, err := spec.Build(ctx)
	if err != nil {
		return transportFailure(start, reqSnapshot, nil, err)
	}

	logger.Debug("Sending request.", "method", req.Method)
	captured, err := httpclient.Do(client, req)
	if err != nil {
		logger.Debug("Request failed.", "error", err)
		return transportFailure(start, reqSnapshot, captured, err)
	}
	elapsed := time.Since(start)
	logger.Debug("Received response.", "status", captured.Status, "elapsed_ms", elapsed.Milliseconds())

	data := captured.Decoded()
	results := assertion.EvaluateAll(&assertion.Response{
		Status: captured.Status,
		Header: captured.Header,
		Body:   data,
		Raw:    captured.Raw,
	}, cfg.Assertions, elapsed)

	passed := assertion.AllPassed(results)
	failure := ""
	if !passed {
		failure = fmt.Sprintf("%d assertion(s) failed", assertion.CountFailed(results))
	}

	result := model.NewResult(passed, time.Since(start), failure)
	result.APIPayload = &model.APIPayload{
		Request: reqSnapshot,
		Response: &model.ResponseSnapshot{
			Status:     captured.Status,
			StatusText: captured.StatusText,
			Headers:    captured.Header,
			Data:       data,
			Size:       len(jsvalue.StringifySource(captured.Raw, data)),
		},
		Assertions: results,
	}
	return result
}

// transportFailure reports a request that never produced a usable
// response. A partially received response is kept in reduced form.
func transportFailure(start time.Time, req *model.RequestSnapshot, partial *httpclient.Captured, err error) *model.ExecutionResult {
	result := model.NewResult(false, time.Since(start), err.Error())
	payload := &model.APIPayload{
		Request:    req,
		Assertions: []model.AssertionResult{},
	}
	if partial != nil {
		payload.Response = &model.ResponseSnapshot{
			Status:     partial.Status,
			StatusText: partial.StatusText,
			Data:       partial.Decoded(),
		}
	}
	result.APIPayload = payload
	return result
}
