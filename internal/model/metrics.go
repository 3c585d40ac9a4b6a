package model

// LoadMetrics aggregates a complete load run. Latencies are in milliseconds.
type LoadMetrics struct {
	Requests    RequestCounts  `json:"requests"`
	Latency     LatencyStats   `json:"latency"`
	Throughput  Throughput     `json:"throughput"`
	StatusCodes map[string]int `json:"statusCodes"`
	Concurrency Concurrency    `json:"concurrency"`
	Duration    RunDuration    `json:"duration"`
}

type RequestCounts struct {
	Total       int     `json:"total"`
	Completed   int     `json:"completed"`
	Failed      int     `json:"failed"`
	SuccessRate float64 `json:"successRate"`
}

type LatencyStats struct {
	Min    int64 `json:"min"`
	Max    int64 `json:"max"`
	Mean   int64 `json:"mean"`
	Median int64 `json:"median"`
	P90    int64 `json:"p90"`
	P95    int64 `json:"p95"`
	P99    int64 `json:"p99"`
}

type Throughput struct {
	RPS            float64 `json:"rps"`
	BytesPerSecond int64   `json:"bytesPerSecond"`
	TotalBytes     int64   `json:"totalBytes"`
}

type Concurrency struct {
	Peak int `json:"peak"`
}

type RunDuration struct {
	Total        int64   `json:"total"`
	TotalSeconds float64 `json:"totalSeconds"`
}

// TickStats are the counters of one one-second tick of a load run.
type TickStats struct {
	Second    int     `json:"second"`
	Requests  int     `json:"requests"`
	Completed int     `json:"completed"`
	Failed    int     `json:"failed"`
	Latencies []int64 `json:"latencies"`
}
