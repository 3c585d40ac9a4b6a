package load

import (
	"slices"
	"strconv"
	"sync"

	"github.com/vk/testrig/internal/model"
)

// outcome is the result of a single request. status is zero for a
// transport failure.
type outcome struct {
	status  int
	latency int64
	bytes   int64
}

// collector accumulates counters shared by the issuing loop and the
// request goroutines.
type collector struct {
	mu          sync.Mutex
	total       int
	completed   int
	failed      int
	totalBytes  int64
	latencies   []int64
	statusCodes map[string]int
	ticks       []*model.TickStats
}

func newCollector() *collector {
	return &collector{
		latencies:   []int64{},
		statusCodes: map[string]int{},
	}
}

// startTick appends a new entry to the secondly series and returns it.
func (c *collector) startTick(second int) *model.TickStats {
	tick := &model.TickStats{Second: second, Latencies: []int64{}}
	c.mu.Lock()
	c.ticks = append(c.ticks, tick)
	c.mu.Unlock()
	return tick
}

func (c *collector) issued(tick *model.TickStats) {
	c.mu.Lock()
	c.total++
	tick.Requests++
	c.mu.Unlock()
}

func (c *collector) record(tick *model.TickStats, o outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if o.status == 0 {
		c.failed++
		tick.Failed++
		c.statusCodes["error"]++
		return
	}
	c.completed++
	tick.Completed++
	c.latencies = append(c.latencies, o.latency)
	tick.Latencies = append(tick.Latencies, o.latency)
	c.statusCodes[strconv.Itoa(o.status)]++
	c.totalBytes += o.bytes
}

// snapshot is a consistent copy of the collector's state.
type snapshot struct {
	total       int
	completed   int
	failed      int
	totalBytes  int64
	latencies   []int64
	statusCodes map[string]int
	ticks       []model.TickStats
}

func (c *collector) snapshot() snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := snapshot{
		total:       c.total,
		completed:   c.completed,
		failed:      c.failed,
		totalBytes:  c.totalBytes,
		latencies:   slices.Clone(c.latencies),
		statusCodes: make(map[string]int, len(c.statusCodes)),
		ticks:       make([]model.TickStats, len(c.ticks)),
	}
	for k, v := range c.statusCodes {
		s.statusCodes[k] = v
	}
	for i, t := range c.ticks {
		s.ticks[i] = *t
		s.ticks[i].Latencies = slices.Clone(t.Latencies)
	}
	return s
}
