package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/vk/testrig/internal/model"
	"github.com/vk/testrig/internal/progress"
	"github.com/vk/testrig/internal/registry"
)

// MockSleeperModule is a shared, self-contained module for concurrency tests.
// It binds a sleeping engine to every test type and records the execution
// time of each test case it runs.
type MockSleeperModule struct {
	ExecutionTimes map[string]*ExecutionRecord
	mu             sync.Mutex
	running        int
	peak           int
	sleepDuration  time.Duration
	completionChan chan<- string
}

// NewMockSleeperModule creates a new sleeper module for testing.
func NewMockSleeperModule(completionChan chan<- string, sleep time.Duration) *MockSleeperModule {
	return &MockSleeperModule{
		ExecutionTimes: make(map[string]*ExecutionRecord),
		sleepDuration:  sleep,
		completionChan: completionChan,
	}
}

// Register binds the sleeping engine to all test types.
func (m *MockSleeperModule) Register(r *registry.Registry) {
	engine := registry.EngineFunc(func(ctx context.Context, tc *model.TestCase, sink progress.Sink) *model.ExecutionResult {
		m.mu.Lock()
		m.running++
		m.peak = max(m.peak, m.running)
		m.mu.Unlock()

		startTime := time.Now()
		time.Sleep(m.sleepDuration)
		endTime := time.Now()

		m.mu.Lock()
		m.running--
		m.ExecutionTimes[tc.Name] = &ExecutionRecord{Start: startTime, End: endTime}
		m.mu.Unlock()

		result := model.NewResult(true, endTime.Sub(startTime), "")
		sink.Publish(ctx, result)
		if m.completionChan != nil {
			m.completionChan <- tc.Name
		}
		return result
	})
	for _, t := range []model.TestType{model.TypeAPI, model.TypeLoad, model.TypeUI} {
		r.RegisterEngine(t, engine)
	}
}

// Peak returns the highest number of test cases that ran at the same time.
func (m *MockSleeperModule) Peak() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}
