package threshold

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/torosent/crankcheck/internal/metrics"
	"github.com/torosent/crankcheck/internal/timing"
)

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Metric    string  // "req_duration", "req_failed" or "requests"
	Endpoint  string  // optional; set by req_duration{/path}
	Aggregate string  // e.g. "p90", "avg", "rate", "count"
	Operator  string  // "<", "<=", ">", ">=", "=="
	Value     float64 // The threshold value to compare against
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold `json:"-"`
	Raw       string    `json:"threshold"`
	Actual    float64   `json:"actual"`
	Pass      bool      `json:"pass"`
	Message   string    `json:"message"`
}

// Evaluator evaluates thresholds against collected metrics.
type Evaluator struct {
	thresholds []Threshold
}

func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks every threshold. Run-wide metrics come from stats,
// per-endpoint ones from report.
func (e *Evaluator) Evaluate(stats metrics.Stats, report timing.Report) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, evaluateOne(t, stats, report))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, stats metrics.Stats, report timing.Report) Result {
	var actual float64
	var err error
	if t.Endpoint != "" {
		actual, err = extractEndpointMetric(t, report)
	} else {
		actual, err = extractMetricValue(t, stats)
	}
	if err != nil {
		return Result{
			Threshold: t,
			Raw:       t.Raw,
			Pass:      false,
			Message:   fmt.Sprintf("✗ %s: %v", t.Raw, err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	return Result{
		Threshold: t,
		Raw:       t.Raw,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value),
	}
}

var thresholdPattern = regexp.MustCompile(`^([a-z_]+)(?:\{([^{}\s]+)\})?:([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

var (
	validMetrics            = []string{"req_duration", "req_failed", "requests"}
	validAggregates         = []string{"p50", "p90", "p99", "avg", "min", "max", "rate", "count"}
	validEndpointAggregates = []string{"p90", "avg", "count"}
	validOperators          = []string{"<", "<=", ">", ">=", "=="}
)

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
// - "req_duration:p90 < 200"          (run-wide latency percentile in ms)
// - "req_duration:avg < 100"          (run-wide average latency in ms)
// - "req_duration{/fib}:p90 < 50"     (P90 of one endpoint's recent window in ms)
// - "req_duration{/fib}:count >= 10"  (responses timed for one endpoint)
// - "req_failed:rate < 0.01"          (failure rate as decimal)
// - "req_failed:count == 0"           (failure count)
// - "requests:rate > 5"               (completions per second)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: metric[{endpoint}]:aggregate operator value, e.g., 'req_duration:p90 < 200')", s)
	}

	metric := matches[1]
	endpoint := matches[2]
	aggregate := matches[3]
	operator := matches[4]
	valueStr := matches[5]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	if !slices.Contains(validMetrics, metric) {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: %s)", metric, strings.Join(validMetrics, ", "))
	}

	if endpoint != "" {
		if metric != "req_duration" {
			return Threshold{}, fmt.Errorf("endpoint selector is only supported for req_duration, got %q", metric)
		}
		if !strings.HasPrefix(endpoint, "/") {
			return Threshold{}, fmt.Errorf("endpoint %q must start with '/'", endpoint)
		}
		if !slices.Contains(validEndpointAggregates, aggregate) {
			return Threshold{}, fmt.Errorf("unsupported endpoint aggregate: %q (supported: %s)", aggregate, strings.Join(validEndpointAggregates, ", "))
		}
	} else if !slices.Contains(validAggregates, aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate: %q (supported: %s)", aggregate, strings.Join(validAggregates, ", "))
	}

	if !slices.Contains(validOperators, operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: %s)", operator, strings.Join(validOperators, ", "))
	}

	return Threshold{
		Metric:    metric,
		Endpoint:  endpoint,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses multiple threshold strings, reporting every bad one.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errors []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errors = append(errors, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errors, "; "))
	}

	return result, nil
}

func extractMetricValue(t Threshold, stats metrics.Stats) (float64, error) {
	switch t.Metric {
	case "req_duration":
		return extractLatencyMetric(t.Aggregate, stats)
	case "req_failed":
		return extractFailureMetric(t.Aggregate, stats)
	case "requests":
		return extractRequestMetric(t.Aggregate, stats)
	default:
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
}

func extractLatencyMetric(aggregate string, stats metrics.Stats) (float64, error) {
	switch aggregate {
	case "p50":
		return stats.P50LatencyMs, nil
	case "p90":
		return stats.P90LatencyMs, nil
	case "p99":
		return stats.P99LatencyMs, nil
	case "avg":
		return stats.MeanLatencyMs, nil
	case "min":
		return stats.MinLatencyMs, nil
	case "max":
		return stats.MaxLatencyMs, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for req_duration", aggregate)
	}
}

func extractEndpointMetric(t Threshold, report timing.Report) (float64, error) {
	ep, ok := report.Lookup(t.Endpoint)
	if !ok {
		return 0, fmt.Errorf("endpoint %s is not tracked", t.Endpoint)
	}
	switch t.Aggregate {
	case "count":
		return float64(ep.Count), nil
	case "avg":
		return ep.AverageMs, nil
	case "p90":
		if ep.P90Ms == nil {
			return 0, fmt.Errorf("endpoint %s has no samples", t.Endpoint)
		}
		return *ep.P90Ms, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for req_duration{%s}", t.Aggregate, t.Endpoint)
	}
}

func extractFailureMetric(aggregate string, stats metrics.Stats) (float64, error) {
	switch aggregate {
	case "count":
		return float64(stats.Failed), nil
	case "rate":
		return stats.FailureRate(), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for req_failed (use 'count' or 'rate')", aggregate)
	}
}

func extractRequestMetric(aggregate string, stats metrics.Stats) (float64, error) {
	switch aggregate {
	case "count":
		return float64(stats.Completed), nil
	case "rate":
		return stats.RequestsPerSec, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for requests (use 'count' or 'rate')", aggregate)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
