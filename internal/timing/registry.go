package timing

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// DefaultCapacity is the number of recent samples kept per endpoint.
const DefaultCapacity = 1000

// ErrEmptyEndpoint is returned when an endpoint key is blank.
var ErrEmptyEndpoint = errors.New("endpoint must not be empty")

type endpointStats struct {
	count   int64
	total   time.Duration
	clamped int64
	recent  *window
}

// EndpointReport is a point-in-time summary of one endpoint.
type EndpointReport struct {
	Endpoint  string   `json:"endpoint"`
	Count     int64    `json:"count"`
	AverageMs float64  `json:"average_ms"`
	P90Ms     *float64 `json:"p90_ms,omitempty"`
	Retained  int      `json:"retained_samples"`
	Clamped   int64    `json:"clamped_samples,omitempty"`
}

// Report lists endpoint summaries in registration order.
type Report struct {
	Endpoints []EndpointReport `json:"endpoints"`
	Unknown   int64            `json:"unknown_endpoints,omitempty"`
}

// Lookup returns the summary for endpoint, if present.
func (r Report) Lookup(endpoint string) (EndpointReport, bool) {
	for _, ep := range r.Endpoints {
		if ep.Endpoint == endpoint {
			return ep, true
		}
	}
	return EndpointReport{}, false
}

// Option configures a Registry.
type Option func(*Registry)

// WithCapacity sets the per-endpoint sample window. Values < 1 keep the default.
func WithCapacity(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// Registry maps endpoints to their latency statistics.
type Registry struct {
	mu       sync.Mutex
	capacity int
	order    []string
	entries  map[string]*endpointStats
	unknown  int64
}

// NewRegistry creates one zeroed entry per distinct endpoint.
func NewRegistry(endpoints []string, opts ...Option) (*Registry, error) {
	r := &Registry{
		capacity: DefaultCapacity,
		entries:  make(map[string]*endpointStats, len(endpoints)),
	}
	for _, opt := range opts {
		opt(r)
	}
	for idx, ep := range endpoints {
		if strings.TrimSpace(ep) == "" {
			return nil, fmt.Errorf("endpoints[%d]: %w", idx, ErrEmptyEndpoint)
		}
		if _, ok := r.entries[ep]; ok {
			continue
		}
		r.add(ep)
	}
	return r, nil
}

func (r *Registry) add(endpoint string) *endpointStats {
	stats := &endpointStats{recent: newWindow(r.capacity)}
	r.entries[endpoint] = stats
	r.order = append(r.order, endpoint)
	return stats
}

// Record adds the duration end-start for endpoint. A negative duration is
// clamped to zero and counted as clamped. An endpoint the registry was not
// created with gets a fresh entry.
func (r *Registry) Record(endpoint string, start, end time.Time) {
	d := end.Sub(start)

	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.entries[endpoint]
	if !ok {
		r.unknown++
		stats = r.add(endpoint)
	}
	if d < 0 {
		d = 0
		stats.clamped++
	}
	stats.count++
	stats.total += d
	stats.recent.add(d)
}

// Endpoints returns the tracked endpoints in registration order.
func (r *Registry) Endpoints() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// Capacity returns the per-endpoint sample window size.
func (r *Registry) Capacity() int {
	return r.capacity
}

// Report summarizes every endpoint without modifying state.
func (r *Registry) Report() Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := Report{
		Endpoints: make([]EndpointReport, 0, len(r.order)),
		Unknown:   r.unknown,
	}
	for _, name := range r.order {
		stats := r.entries[name]
		ep := EndpointReport{
			Endpoint: name,
			Count:    stats.count,
			Retained: stats.recent.len(),
			Clamped:  stats.clamped,
		}
		if stats.count > 0 {
			ep.AverageMs = toMillis(stats.total) / float64(stats.count)
			if p90, ok := stats.recent.percentile(90); ok {
				ms := toMillis(p90)
				ep.P90Ms = &ms
			}
		}
		report.Endpoints = append(report.Endpoints, ep)
	}
	return report
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
