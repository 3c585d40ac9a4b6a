// Package progress carries intermediate execution snapshots from an engine
// to whoever is watching the run. Engines push a snapshot at well-defined
// checkpoints (after a load tick, after navigation, after each UI step);
// a snapshot has the same shape as the final result.
package progress

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/vk/testrig/internal/ctxlog"
	"github.com/vk/testrig/internal/model"
)

// Sink receives snapshots. Publish must not block the engine for long and
// must not retain the snapshot beyond the call unless it copies it.
type Sink interface {
	Publish(ctx context.Context, snapshot *model.ExecutionResult)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, snapshot *model.ExecutionResult)

// Publish calls f.
func (f SinkFunc) Publish(ctx context.Context, snapshot *model.ExecutionResult) {
	f(ctx, snapshot)
}

type discard struct{}

func (discard) Publish(context.Context, *model.ExecutionResult) {}

// Discard is a Sink that drops every snapshot.
var Discard Sink = discard{}

// OrDiscard returns s, or Discard when s is nil.
func OrDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}

// Multi fans a snapshot out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	var active []Sink
	for _, s := range sinks {
		if s != nil {
			active = append(active, s)
		}
	}
	return SinkFunc(func(ctx context.Context, snapshot *model.ExecutionResult) {
		for _, s := range active {
			s.Publish(ctx, snapshot)
		}
	})
}

// Log writes a debug line per snapshot to the context logger.
var Log Sink = SinkFunc(func(ctx context.Context, snapshot *model.ExecutionResult) {
	logger := ctxlog.FromContext(ctx)
	args := []any{"success", snapshot.Success, "duration_ms", snapshot.Duration}
	if snapshot.LoadPayload != nil {
		args = append(args, "ticks", len(snapshot.SecondlyData))
	}
	if snapshot.UIPayload != nil {
		args = append(args, "steps", len(snapshot.Steps))
	}
	logger.Debug("Progress snapshot.", args...)
})

// Latest keeps the most recent snapshot as JSON so it can be served while
// the run is still going.
type Latest struct {
	mu   sync.RWMutex
	data []byte
}

// NewLatest returns an empty Latest sink.
func NewLatest() *Latest {
	return &Latest{}
}

// Publish stores a serialized copy of the snapshot.
func (l *Latest) Publish(ctx context.Context, snapshot *model.ExecutionResult) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to serialize progress snapshot.", "error", err)
		return
	}
	l.mu.Lock()
	l.data = data
	l.mu.Unlock()
}

// JSON returns the last stored snapshot, or nil when nothing was published.
func (l *Latest) JSON() []byte {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.data
}
