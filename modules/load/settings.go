package load

import (
	"fmt"
	"net/url"
	"time"

	"github.com/vk/testrig/internal/httpclient"
	"github.com/vk/testrig/internal/model"
)

const (
	defaultDuration      = 10
	maxDuration          = 300
	defaultArrivalRate   = 5
	maxArrivalRate       = 200
	defaultTimeout       = 10 * time.Second
	defaultMaxConcurrent = 100
	maxRedirects         = 3
)

// settings is a LoadConfig with defaults and clamps applied.
type settings struct {
	target        string
	duration      int
	arrivalRate   int
	rampUp        int
	method        string
	header        map[string]string
	body          any
	timeout       time.Duration
	maxConcurrent int
}

func newSettings(cfg *model.LoadConfig) settings {
	s := settings{
		target:        cfg.Target,
		duration:      clamp(cfg.Duration, defaultDuration, maxDuration),
		arrivalRate:   clamp(cfg.ArrivalRate, defaultArrivalRate, maxArrivalRate),
		rampUp:        max(cfg.RampUpDuration, 0),
		method:        httpclient.NormalizeMethod(cfg.Method),
		header:        cfg.Headers,
		body:          cfg.Body,
		timeout:       defaultTimeout,
		maxConcurrent: cfg.MaxConcurrent,
	}
	if cfg.Timeout > 0 {
		s.timeout = time.Duration(cfg.Timeout) * time.Millisecond
	}
	if s.maxConcurrent <= 0 {
		s.maxConcurrent = defaultMaxConcurrent
	}
	return s
}

// clamp substitutes def for non-positive values and caps at limit.
func clamp(v, def, limit int) int {
	if v <= 0 {
		v = def
	}
	return min(v, limit)
}

// validateTarget requires an absolute URL with a scheme and a host.
func validateTarget(target string) error {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid target URL: %s", target)
	}
	return nil
}

// CurrentRate returns the number of requests issued during tick t. While
// t is inside the ramp-up window the rate climbs linearly toward arrival.
func CurrentRate(arrival, rampUp, t int) int {
	if rampUp > 0 && t < rampUp {
		// ceil(arrival*(t+1)/rampUp) in integer arithmetic.
		return (arrival*(t+1) + rampUp - 1) / rampUp
	}
	return arrival
}
