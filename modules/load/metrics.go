package load

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/vk/testrig/internal/model"
)

// Percentile returns the nearest-rank percentile of an ascending sample:
// the element at index ceil(n*p/100)-1, clamped to the first element.
func Percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(float64(len(sorted))*p/100)) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}

func computeMetrics(s snapshot, elapsed time.Duration, peak int) *model.LoadMetrics {
	sorted := slices.Clone(s.latencies)
	slices.Sort(sorted)

	m := &model.LoadMetrics{
		Requests: model.RequestCounts{
			Total:     s.total,
			Completed: s.completed,
			Failed:    s.failed,
		},
		StatusCodes: s.statusCodes,
		Concurrency: model.Concurrency{Peak: peak},
		Duration: model.RunDuration{
			Total:        elapsed.Milliseconds(),
			TotalSeconds: round(elapsed.Seconds(), 1),
		},
	}
	if s.total > 0 {
		m.Requests.SuccessRate = round(float64(s.completed)/float64(s.total), 4)
	}

	if n := len(sorted); n > 0 {
		var sum int64
		for _, v := range sorted {
			sum += v
		}
		m.Latency = model.LatencyStats{
			Min:    sorted[0],
			Max:    sorted[n-1],
			Mean:   int64(math.Round(float64(sum) / float64(n))),
			Median: Percentile(sorted, 50),
			P90:    Percentile(sorted, 90),
			P95:    Percentile(sorted, 95),
			P99:    Percentile(sorted, 99),
		}
	}

	m.Throughput.TotalBytes = s.totalBytes
	if secs := elapsed.Seconds(); secs > 0 {
		m.Throughput.RPS = round(float64(s.completed)/secs, 2)
		m.Throughput.BytesPerSecond = int64(math.Round(float64(s.totalBytes) / secs))
	}
	return m
}

func round(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}

// summarize renders the human-readable report attached to a finished run.
func summarize(m *model.LoadMetrics) string {
	lines := []string{
		"[Load Test Complete]",
		fmt.Sprintf("Duration: %.1fs", m.Duration.TotalSeconds),
		fmt.Sprintf("Requests: Total %d | Success %d | Failed %d",
			m.Requests.Total, m.Requests.Completed, m.Requests.Failed),
		fmt.Sprintf("Success Rate: %.2f%%", m.Requests.SuccessRate*100),
		fmt.Sprintf("RPS: %.2f", m.Throughput.RPS),
		fmt.Sprintf("Latency: Min %dms | Avg %dms | Max %dms",
			m.Latency.Min, m.Latency.Mean, m.Latency.Max),
		fmt.Sprintf("Percentiles: P50 %dms | P90 %dms | P95 %dms | P99 %dms",
			m.Latency.Median, m.Latency.P90, m.Latency.P95, m.Latency.P99),
		fmt.Sprintf("Peak Concurrency: %d", m.Concurrency.Peak),
	}
	return strings.Join(lines, "\n")
}
