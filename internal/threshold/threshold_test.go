package threshold

import (
	"strings"
	"testing"

	"github.com/torosent/crankcheck/internal/metrics"
	"github.com/torosent/crankcheck/internal/timing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Threshold
		wantError bool
	}{
		{
			name:  "run-wide p90 latency",
			input: "req_duration:p90 < 200",
			want:  Threshold{Metric: "req_duration", Aggregate: "p90", Operator: "<", Value: 200, Raw: "req_duration:p90 < 200"},
		},
		{
			name:  "failure rate",
			input: "req_failed:rate < 0.01",
			want:  Threshold{Metric: "req_failed", Aggregate: "rate", Operator: "<", Value: 0.01, Raw: "req_failed:rate < 0.01"},
		},
		{
			name:  "failure count without spaces",
			input: "req_failed:count==0",
			want:  Threshold{Metric: "req_failed", Aggregate: "count", Operator: "==", Value: 0, Raw: "req_failed:count==0"},
		},
		{
			name:  "requests rate",
			input: "requests:rate >= 5",
			want:  Threshold{Metric: "requests", Aggregate: "rate", Operator: ">=", Value: 5, Raw: "requests:rate >= 5"},
		},
		{
			name:  "endpoint p90",
			input: "req_duration{/fib}:p90 <= 50",
			want:  Threshold{Metric: "req_duration", Endpoint: "/fib", Aggregate: "p90", Operator: "<=", Value: 50, Raw: "req_duration{/fib}:p90 <= 50"},
		},
		{
			name:  "endpoint with dots",
			input: "req_duration{/sample.json}:count > 0",
			want:  Threshold{Metric: "req_duration", Endpoint: "/sample.json", Aggregate: "count", Operator: ">", Value: 0, Raw: "req_duration{/sample.json}:count > 0"},
		},
		{name: "empty string", input: "", wantError: true},
		{name: "missing operator", input: "req_duration:p90 500", wantError: true},
		{name: "invalid metric", input: "invalid_metric:p90 < 500", wantError: true},
		{name: "invalid aggregate", input: "req_duration:p85 < 500", wantError: true},
		{name: "invalid operator", input: "req_duration:p90 << 500", wantError: true},
		{name: "value not a number", input: "req_duration:p90 < abc", wantError: true},
		{name: "endpoint on failure metric", input: "req_failed{/fib}:count < 1", wantError: true},
		{name: "relative endpoint", input: "req_duration{fib}:p90 < 1", wantError: true},
		{name: "endpoint aggregate not kept per endpoint", input: "req_duration{/fib}:p99 < 1", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("Parse() error = %v, wantError %v", err, tt.wantError)
			}
			if !tt.wantError && got != tt.want {
				t.Errorf("Parse() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseMultiple(t *testing.T) {
	got, err := ParseMultiple([]string{"req_duration:p90 < 500", "req_failed:rate < 0.01", "requests:rate > 1"})
	if err != nil {
		t.Fatalf("ParseMultiple() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ParseMultiple() returned %d thresholds, want 3", len(got))
	}

	if got, err := ParseMultiple(nil); err != nil || got != nil {
		t.Fatalf("ParseMultiple(nil) = %v, %v", got, err)
	}

	_, err = ParseMultiple([]string{"req_duration:p90 < 500", "invalid threshold", "nope"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "threshold[1]") || !strings.Contains(err.Error(), "threshold[2]") {
		t.Fatalf("error should list every bad threshold: %v", err)
	}
}

func sampleStats() metrics.Stats {
	return metrics.Stats{
		Completed:      1000,
		Passed:         980,
		Failed:         20,
		MinLatencyMs:   10,
		MaxLatencyMs:   500,
		MeanLatencyMs:  100,
		P50LatencyMs:   80,
		P90LatencyMs:   200,
		P99LatencyMs:   400,
		RequestsPerSec: 100,
	}
}

func sampleReport() timing.Report {
	p90 := 42.5
	return timing.Report{Endpoints: []timing.EndpointReport{
		{Endpoint: "/fib", Count: 600, AverageMs: 30, P90Ms: &p90},
		{Endpoint: "/sample.json", Count: 0},
	}}
}

func TestEvaluator(t *testing.T) {
	tests := []struct {
		name       string
		thresholds []string
		wantPass   []bool
	}{
		{
			name:       "all thresholds pass",
			thresholds: []string{"req_duration:p99 < 500", "req_failed:rate < 0.05", "requests:rate > 50"},
			wantPass:   []bool{true, true, true},
		},
		{
			name:       "some thresholds fail",
			thresholds: []string{"req_duration:p99 < 300", "req_failed:rate < 0.01", "requests:rate > 50"},
			wantPass:   []bool{false, false, true},
		},
		{
			name:       "latency aggregates",
			thresholds: []string{"req_duration:p50 < 100", "req_duration:p90 < 250", "req_duration:avg < 150", "req_duration:max < 600", "req_duration:min > 5"},
			wantPass:   []bool{true, true, true, true, true},
		},
		{
			name:       "counts",
			thresholds: []string{"req_failed:count < 50", "requests:count == 1000", "req_failed:count == 0"},
			wantPass:   []bool{true, true, false},
		},
		{
			name:       "per endpoint",
			thresholds: []string{"req_duration{/fib}:p90 < 50", "req_duration{/fib}:avg < 20", "req_duration{/fib}:count >= 600"},
			wantPass:   []bool{true, false, true},
		},
		{
			name:       "endpoint without samples or unknown",
			thresholds: []string{"req_duration{/sample.json}:p90 < 1000", "req_duration{/sample.json}:count == 0", "req_duration{/nope}:avg < 1"},
			wantPass:   []bool{false, true, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thresholds, err := ParseMultiple(tt.thresholds)
			if err != nil {
				t.Fatalf("ParseMultiple() error = %v", err)
			}

			results := NewEvaluator(thresholds).Evaluate(sampleStats(), sampleReport())
			if len(results) != len(tt.wantPass) {
				t.Fatalf("got %d results, want %d", len(results), len(tt.wantPass))
			}

			for i, result := range results {
				if result.Pass != tt.wantPass[i] {
					t.Errorf("threshold[%d] %q: got pass=%v, want %v (actual=%.2f, message=%s)",
						i, result.Raw, result.Pass, tt.wantPass[i], result.Actual, result.Message)
				}
			}
			if AllPassed(results) != !containsFalse(tt.wantPass) {
				t.Errorf("AllPassed() = %v", AllPassed(results))
			}
		})
	}
}

func containsFalse(values []bool) bool {
	for _, v := range values {
		if !v {
			return true
		}
	}
	return false
}

func TestEvaluatorWithoutThresholds(t *testing.T) {
	if results := NewEvaluator(nil).Evaluate(sampleStats(), sampleReport()); results != nil {
		t.Fatalf("Evaluate() = %v, want nil", results)
	}
	if !AllPassed(nil) {
		t.Fatalf("AllPassed(nil) = false")
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name     string
		actual   float64
		operator string
		expected float64
		want     bool
	}{
		{"less than true", 50, "<", 100, true},
		{"less than equal", 100, "<", 100, false},
		{"less than or equal equal", 100, "<=", 100, true},
		{"less than or equal false", 150, "<=", 100, false},
		{"greater than true", 150, ">", 100, true},
		{"greater than equal", 100, ">", 100, false},
		{"greater than or equal equal", 100, ">=", 100, true},
		{"greater than or equal false", 50, ">=", 100, false},
		{"equal true", 100, "==", 100, true},
		{"equal false", 100, "==", 101, false},
		{"equal with floating point precision", 100.0000000001, "==", 100, true},
		{"unknown operator", 1, "!=", 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compareValues(tt.actual, tt.operator, tt.expected); got != tt.want {
				t.Errorf("compareValues(%.2f, %s, %.2f) = %v, want %v",
					tt.actual, tt.operator, tt.expected, got, tt.want)
			}
		})
	}
}

func TestExtractMetricValue(t *testing.T) {
	stats := sampleStats()

	tests := []struct {
		threshold Threshold
		want      float64
		wantError bool
	}{
		{threshold: Threshold{Metric: "req_duration", Aggregate: "p50"}, want: 80},
		{threshold: Threshold{Metric: "req_duration", Aggregate: "p90"}, want: 200},
		{threshold: Threshold{Metric: "req_duration", Aggregate: "p99"}, want: 400},
		{threshold: Threshold{Metric: "req_failed", Aggregate: "rate"}, want: 0.02},
		{threshold: Threshold{Metric: "req_failed", Aggregate: "count"}, want: 20},
		{threshold: Threshold{Metric: "requests", Aggregate: "rate"}, want: 100},
		{threshold: Threshold{Metric: "requests", Aggregate: "count"}, want: 1000},
		{threshold: Threshold{Metric: "invalid_metric", Aggregate: "p90"}, wantError: true},
		{threshold: Threshold{Metric: "req_failed", Aggregate: "p90"}, wantError: true},
	}

	for _, tt := range tests {
		name := tt.threshold.Metric + ":" + tt.threshold.Aggregate
		t.Run(name, func(t *testing.T) {
			got, err := extractMetricValue(tt.threshold, stats)
			if (err != nil) != tt.wantError {
				t.Fatalf("extractMetricValue() error = %v, wantError %v", err, tt.wantError)
			}
			if !tt.wantError && got != tt.want {
				t.Errorf("extractMetricValue() = %v, want %v", got, tt.want)
			}
		})
	}
}
