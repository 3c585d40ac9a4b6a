package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vk/testrig/internal/ctxlog"
	"github.com/vk/testrig/internal/history"
	"github.com/vk/testrig/internal/model"
	"github.com/vk/testrig/internal/progress"
)

// ErrTestsFailed is wrapped by Run when at least one test case failed.
var ErrTestsFailed = errors.New("test cases failed")

// execution pairs a test case with its outcome.
type execution struct {
	tc     *model.TestCase
	record *history.Record
	result *model.ExecutionResult
}

// Run loads the configured test cases, executes them and reports the
// results. It returns an error wrapping ErrTestsFailed when any test case
// did not succeed.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	if err := a.registry.Validate(ctx); err != nil {
		return err
	}
	if len(a.config.Paths) == 0 {
		return errors.New("no test case paths given")
	}

	cases, err := a.loader.Load(ctx, a.config.Paths...)
	if err != nil {
		return fmt.Errorf("failed to load test cases: %w", err)
	}
	if len(cases) == 0 {
		a.logger.Warn("No test cases found, execution not required.")
		return nil
	}

	store, err := history.Open(ctx, a.config.HistoryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	stream := a.dialProgress(ctx)
	if stream != nil {
		defer stream.Close()
	}

	a.logger.Info("🚀 Starting test execution...", "test_cases", len(cases), "workers", a.config.WorkerCount)
	executions := a.execute(ctx, cases, store, stream)
	a.logger.Info("🏁 Execution finished.")

	if err := a.report(executions); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	failed := 0
	for _, e := range executions {
		if !e.result.Success {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d %w", failed, len(executions), ErrTestsFailed)
	}
	return nil
}

// execute runs the test cases on a fixed pool of workers. Results keep the
// order of cases.
func (a *App) execute(ctx context.Context, cases []*model.TestCase, store *history.Store, stream *progress.SocketIO) []*execution {
	executions := make([]*execution, len(cases))
	queue := make(chan int)

	workers := min(a.config.WorkerCount, len(cases))
	var wg sync.WaitGroup
	for id := 1; id <= workers; id++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.worker(ctx, id, queue, cases, executions, store, stream)
		}()
	}

	for i := range cases {
		queue <- i
	}
	close(queue)
	wg.Wait()
	return executions
}

// worker is the processing loop for a single concurrent worker. Each slot
// of executions is written by exactly one worker.
func (a *App) worker(ctx context.Context, workerID int, queue <-chan int, cases []*model.TestCase, executions []*execution, store *history.Store, stream *progress.SocketIO) {
	ctx, logger := ctxlog.With(ctx, "workerID", workerID)
	logger.Debug("Worker started.")

	for i := range queue {
		tc := cases[i]
		var live progress.Sink
		if stream != nil {
			live = stream.For(tc)
		}
		sink := progress.Multi(progress.Log, a.latest, live)

		started := time.Now()
		result := a.registry.Dispatch(ctx, tc, sink)

		record, err := store.Put(tc, started, result)
		if err != nil {
			logger.Error("Failed to record execution.", "test", tc.Name, "error", err)
		}
		executions[i] = &execution{tc: tc, record: record, result: result}
	}
	logger.Debug("Worker finished.")
}

// dialProgress connects the live progress stream. The run continues
// without it when the dashboard cannot be reached.
func (a *App) dialProgress(ctx context.Context) *progress.SocketIO {
	if a.config.ProgressURL == "" {
		return nil
	}
	stream, err := progress.DialSocketIO(ctx, progress.SocketIOOptions{URL: a.config.ProgressURL})
	if err != nil {
		a.logger.Warn("Progress stream unavailable, continuing without it.", "url", a.config.ProgressURL, "error", err)
		return nil
	}
	a.logger.Info("Streaming progress.", "url", a.config.ProgressURL)
	return stream
}
