package load

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/testrig/internal/ctxlog"
	"github.com/vk/testrig/internal/httpclient"
	"github.com/vk/testrig/internal/model"
	"github.com/vk/testrig/internal/progress"
)

// Engine runs load test configurations.
type Engine struct {
	// tick is the length of one schedule slot and poll the admission
	// re-check interval. Both are fixed in production.
	tick time.Duration
	poll time.Duration
	// transport replaces the client's transport when set.
	transport http.RoundTripper
}

// New returns a load engine on the one-second schedule.
func New() *Engine {
	return &Engine{tick: time.Second, poll: 50 * time.Millisecond}
}

// run holds the state of one invocation.
type run struct {
	settings
	engine   *Engine
	client   *http.Client
	col      *collector
	inFlight atomic.Int64
	peak     int
	wg       sync.WaitGroup
	start    time.Time
}

// Execute performs the run described by cfg. Snapshots are published to
// sink after every tick; the final result is published before returning.
func (e *Engine) Execute(ctx context.Context, cfg *model.LoadConfig, sink progress.Sink) (result *model.ExecutionResult) {
	start := time.Now()
	ctx, logger := ctxlog.With(ctx, "engine", "load", "target", cfg.Target)
	sink = progress.OrDiscard(sink)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Load run aborted.", "panic", r)
			result = model.NewResult(false, time.Since(start), fmt.Sprintf("load run aborted: %v", r))
			result.LoadPayload = &model.LoadPayload{}
		}
		sink.Publish(ctx, result)
	}()

	s := newSettings(cfg)
	if err := validateTarget(s.target); err != nil {
		result = model.NewResult(false, 0, err.Error())
		result.LoadPayload = &model.LoadPayload{}
		return result
	}

	r := &run{
		settings: s,
		engine:   e,
		client: httpclient.New(httpclient.Options{
			Timeout:         s.timeout,
			MaxRedirects:    maxRedirects,
			MaxConnsPerHost: s.maxConcurrent,
		}),
		col:   newCollector(),
		start: start,
	}
	if e.transport != nil {
		r.client.Transport = e.transport
	}
	defer httpclient.Destroy(r.client)

	logger.Info("Starting load run.", "duration", s.duration, "arrival_rate", s.arrivalRate,
		"ramp_up", s.rampUp, "max_concurrent", s.maxConcurrent)

	err := r.issue(ctx, sink)
	r.wg.Wait()

	result = r.result(false)
	if err != nil && result.Success {
		msg := fmt.Sprintf("load run interrupted: %v", err)
		result.Success = false
		result.Error = &msg
	}
	logger.Info("Load run finished.", "total", result.Metrics.Requests.Total,
		"failed", result.Metrics.Requests.Failed, "elapsed_ms", result.Duration)
	return result
}

// issue runs the tick schedule. It returns early only when ctx ends.
func (r *run) issue(ctx context.Context, sink progress.Sink) error {
	for t := 0; t < r.duration; t++ {
		tickStart := time.Now()
		rate := CurrentRate(r.arrivalRate, r.rampUp, t)
		interval := max(r.engine.tick/time.Duration(rate), time.Millisecond)
		tick := r.col.startTick(t)

		for i := 0; i < rate; i++ {
			if err := r.admit(ctx); err != nil {
				return err
			}
			r.send(ctx, tick)
			if i < rate-1 {
				if err := sleep(ctx, interval); err != nil {
					return err
				}
			}
		}

		if err := sleep(ctx, r.engine.tick-time.Since(tickStart)); err != nil {
			return err
		}
		sink.Publish(ctx, r.result(true))
	}
	return nil
}

// admit blocks until fewer than maxConcurrent requests are in flight.
func (r *run) admit(ctx context.Context) error {
	for r.inFlight.Load() >= int64(r.maxConcurrent) {
		if err := sleep(ctx, r.engine.poll); err != nil {
			return err
		}
	}
	return nil
}

// send issues one request asynchronously. Only the issuing loop increments
// the in-flight counter, so it alone maintains the peak.
func (r *run) send(ctx context.Context, tick *model.TickStats) {
	r.col.issued(tick)
	if n := int(r.inFlight.Add(1)); n > r.peak {
		r.peak = n
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.inFlight.Add(-1)

		// A panicking request counts as failed. Once record has started the
		// outcome is not recorded a second time.
		recorded := false
		defer func() {
			if rec := recover(); rec != nil {
				ctxlog.FromContext(ctx).Error("Request panicked.", "panic", rec)
				if !recorded {
					r.col.record(tick, outcome{})
				}
			}
		}()

		o := r.roundTrip(ctx)
		recorded = true
		r.col.record(tick, o)
	}()
}

func (r *run) roundTrip(ctx context.Context) outcome {
	req, err := httpclient.Request{
		Method: r.method,
		URL:    r.target,
		Header: r.header,
		Body:   r.body,
	}.Build(ctx)
	if err != nil {
		return outcome{}
	}
	captured, err := httpclient.Do(r.client, req)
	if err != nil {
		ctxlog.FromContext(ctx).Debug("Request failed.", "error", err)
		return outcome{}
	}
	return outcome{
		status:  captured.Status,
		latency: captured.Elapsed.Milliseconds(),
		bytes:   captured.Bytes,
	}
}

// result assembles the current state into a result. Partial results carry
// no summary.
func (r *run) result(partial bool) *model.ExecutionResult {
	elapsed := time.Since(r.start)
	snap := r.col.snapshot()
	metrics := computeMetrics(snap, elapsed, r.peak)

	success := snap.total > 0 && float64(snap.failed)/float64(snap.total) < 0.5
	failure := ""
	switch {
	case snap.total == 0:
		failure = "no requests were issued"
	case !success:
		failure = fmt.Sprintf("%d of %d requests failed", snap.failed, snap.total)
	}

	result := model.NewResult(success, elapsed, failure)
	result.LoadPayload = &model.LoadPayload{
		Metrics:      metrics,
		SecondlyData: snap.ticks,
	}
	if !partial {
		result.Summary = summarize(metrics)
	}
	return result
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
