package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/crankcheck/internal/runner"
)

// Collector tallies outcomes of a run in a thread-safe manner.
type Collector struct {
	mu         sync.Mutex
	hist       *hdrhistogram.Histogram
	completed  int64
	passed     int64
	responses  int64
	minLatency time.Duration
	maxLatency time.Duration
	sumLatency time.Duration
	byKind     map[runner.OutcomeKind]int64
	byStatus   map[string]map[string]int
	errorTypes map[string]int64
}

// Stats represents aggregated metrics.
type Stats struct {
	Completed      int64         `json:"completed"`
	Passed         int64         `json:"passed"`
	Failed         int64         `json:"failed"`
	Responses      int64         `json:"responses"`
	MinLatency     time.Duration `json:"-"`
	MaxLatency     time.Duration `json:"-"`
	MeanLatency    time.Duration `json:"-"`
	P50Latency     time.Duration `json:"-"`
	P90Latency     time.Duration `json:"-"`
	P99Latency     time.Duration `json:"-"`
	Duration       time.Duration `json:"-"`
	RequestsPerSec float64       `json:"requests_per_sec"`

	// JSON-friendly millisecond fields.
	MinLatencyMs  float64 `json:"min_latency_ms"`
	MaxLatencyMs  float64 `json:"max_latency_ms"`
	MeanLatencyMs float64 `json:"mean_latency_ms"`
	P50LatencyMs  float64 `json:"p50_latency_ms"`
	P90LatencyMs  float64 `json:"p90_latency_ms"`
	P99LatencyMs  float64 `json:"p99_latency_ms"`
	DurationMs    float64 `json:"duration_ms"`

	Outcomes       map[string]int64          `json:"outcomes,omitempty"`
	StatusFailures map[string]map[string]int `json:"status_failures,omitempty"`
	Errors         map[string]int            `json:"errors,omitempty"`
}

// FailureRate is the fraction of completed actions that did not pass.
func (s Stats) FailureRate() float64 {
	if s.Completed == 0 {
		return 0
	}
	return float64(s.Failed) / float64(s.Completed)
}

func NewCollector() *Collector {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		hist:       h,
		byKind:     make(map[runner.OutcomeKind]int64),
		byStatus:   make(map[string]map[string]int),
		errorTypes: make(map[string]int64),
	}
}

// Record adds one outcome. Latency only counts when a response arrived.
func (c *Collector) Record(o runner.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.completed++
	c.byKind[o.Kind]++
	if o.Kind == runner.OutcomePass {
		c.passed++
	}

	if o.Kind != runner.OutcomeTransportError {
		c.recordLatency(o.Latency)
	}

	switch o.Kind {
	case runner.OutcomeStatusMismatch:
		endpoint := o.Action.Endpoint()
		if c.byStatus[endpoint] == nil {
			c.byStatus[endpoint] = make(map[string]int)
		}
		c.byStatus[endpoint][strconv.Itoa(o.StatusCode)]++
	case runner.OutcomeTransportError:
		c.errorTypes[errorTypeName(o.Err)]++
	}
}

func (c *Collector) recordLatency(latency time.Duration) {
	c.responses++
	us := latency.Microseconds()
	if us < c.hist.LowestTrackableValue() {
		us = c.hist.LowestTrackableValue()
	}
	if us > c.hist.HighestTrackableValue() {
		us = c.hist.HighestTrackableValue()
	}
	_ = c.hist.RecordValue(us)

	c.sumLatency += latency
	if c.responses == 1 || latency < c.minLatency {
		c.minLatency = latency
	}
	if latency > c.maxLatency {
		c.maxLatency = latency
	}
}

// errorTypeName reports the type of the underlying cause of a transport error.
func errorTypeName(err error) string {
	if err == nil {
		return ""
	}
	var transport *runner.TransportError
	if errors.As(err, &transport) && transport.Err != nil {
		err = transport.Err
	}
	return fmt.Sprintf("%T", err)
}

// Completed returns the number of outcomes recorded so far.
func (c *Collector) Completed() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

// Stats computes and returns current aggregated statistics.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		Completed:  c.completed,
		Passed:     c.passed,
		Failed:     c.completed - c.passed,
		Responses:  c.responses,
		MinLatency: c.minLatency,
		MaxLatency: c.maxLatency,
	}

	if c.responses > 0 {
		stats.MeanLatency = time.Duration(int64(c.sumLatency) / c.responses)
	}

	if c.hist.TotalCount() > 0 {
		stats.P50Latency = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		stats.P90Latency = time.Duration(c.hist.ValueAtQuantile(90)) * time.Microsecond
		stats.P99Latency = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	stats.MinLatencyMs = toMillis(stats.MinLatency)
	stats.MaxLatencyMs = toMillis(stats.MaxLatency)
	stats.MeanLatencyMs = toMillis(stats.MeanLatency)
	stats.P50LatencyMs = toMillis(stats.P50Latency)
	stats.P90LatencyMs = toMillis(stats.P90Latency)
	stats.P99LatencyMs = toMillis(stats.P99Latency)

	stats.Duration = elapsed
	stats.DurationMs = toMillis(elapsed)
	if elapsed > 0 && c.completed > 0 {
		stats.RequestsPerSec = float64(c.completed) / elapsed.Seconds()
	}

	if len(c.byKind) > 0 {
		stats.Outcomes = make(map[string]int64, len(c.byKind))
		for kind, n := range c.byKind {
			stats.Outcomes[kind.String()] = n
		}
	}
	if len(c.byStatus) > 0 {
		stats.StatusFailures = make(map[string]map[string]int, len(c.byStatus))
		for endpoint, codes := range c.byStatus {
			copied := make(map[string]int, len(codes))
			for code, n := range codes {
				copied[code] = n
			}
			stats.StatusFailures[endpoint] = copied
		}
	}
	if len(c.errorTypes) > 0 {
		stats.Errors = make(map[string]int, len(c.errorTypes))
		for k, v := range c.errorTypes {
			stats.Errors[k] = int(v)
		}
	}

	return stats
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
