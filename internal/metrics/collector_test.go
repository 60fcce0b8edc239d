package metrics_test

import (
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/torosent/crankcheck/internal/metrics"
	"github.com/torosent/crankcheck/internal/runner"
	"github.com/torosent/crankcheck/internal/scenario"
)

var hello = scenario.MustAction("/hello", "GET", "", 200, nil)

func passed(latency time.Duration) runner.Outcome {
	return runner.Outcome{Action: hello, Kind: runner.OutcomePass, StatusCode: 200, Latency: latency}
}

func TestCollectorLatencyStats(t *testing.T) {
	c := metrics.NewCollector()

	for _, ms := range []int{10, 20, 30, 40, 50} {
		c.Record(passed(time.Duration(ms) * time.Millisecond))
	}

	stats := c.Stats(0)

	if stats.Completed != 5 || stats.Passed != 5 || stats.Failed != 0 {
		t.Errorf("counts = %d/%d/%d, want 5/5/0", stats.Completed, stats.Passed, stats.Failed)
	}
	if stats.MinLatency != 10*time.Millisecond {
		t.Errorf("expected min 10ms, got %s", stats.MinLatency)
	}
	if stats.MaxLatency != 50*time.Millisecond {
		t.Errorf("expected max 50ms, got %s", stats.MaxLatency)
	}
	if stats.MeanLatency != 30*time.Millisecond {
		t.Errorf("expected mean 30ms, got %s", stats.MeanLatency)
	}
}

func TestPercentilesCalculations(t *testing.T) {
	c := metrics.NewCollector()

	for i := 1; i <= 100; i++ {
		c.Record(passed(time.Duration(i) * time.Millisecond))
	}

	stats := c.Stats(0)

	if stats.P50Latency < 49*time.Millisecond || stats.P50Latency > 51*time.Millisecond {
		t.Errorf("expected P50 ~50ms, got %s", stats.P50Latency)
	}
	if stats.P90Latency < 89*time.Millisecond || stats.P90Latency > 91*time.Millisecond {
		t.Errorf("expected P90 ~90ms, got %s", stats.P90Latency)
	}
	if stats.P99Latency < 98*time.Millisecond || stats.P99Latency > 100*time.Millisecond {
		t.Errorf("expected P99 ~99ms, got %s", stats.P99Latency)
	}
}

func TestCollectorOutcomeKinds(t *testing.T) {
	c := metrics.NewCollector()
	fib := scenario.MustAction("/fib", "GET", `{"value": 10}`, 200, scenario.Body(`{"value": 55}`))

	c.Record(passed(5 * time.Millisecond))
	c.Record(runner.Outcome{Action: fib, Kind: runner.OutcomeStatusMismatch, StatusCode: 500, Latency: 2 * time.Millisecond,
		Err: &runner.StatusMismatchError{Expected: 200, Actual: 500}})
	c.Record(runner.Outcome{Action: fib, Kind: runner.OutcomeStatusMismatch, StatusCode: 500, Latency: 2 * time.Millisecond,
		Err: &runner.StatusMismatchError{Expected: 200, Actual: 500}})
	c.Record(runner.Outcome{Action: fib, Kind: runner.OutcomeBodyMismatch, StatusCode: 200, Latency: 3 * time.Millisecond,
		Err: &runner.BodyMismatchError{Expected: `{"value": 55}`, Actual: `{}`}})
	c.Record(runner.Outcome{Action: hello, Kind: runner.OutcomeTransportError,
		Err: &runner.TransportError{Err: &url.Error{Op: "Get", URL: "http://localhost:8000/hello", Err: errors.New("refused")}}})

	stats := c.Stats(time.Second)

	if stats.Completed != 5 || stats.Passed != 1 || stats.Failed != 4 {
		t.Fatalf("counts = %d/%d/%d, want 5/1/4", stats.Completed, stats.Passed, stats.Failed)
	}
	if stats.Responses != 4 {
		t.Errorf("Responses = %d, want 4 (transport errors carry no latency)", stats.Responses)
	}
	if stats.MinLatency != 2*time.Millisecond {
		t.Errorf("MinLatency = %s, want 2ms", stats.MinLatency)
	}
	want := map[string]int64{"pass": 1, "status_mismatch": 2, "body_mismatch": 1, "transport_error": 1}
	for kind, n := range want {
		if stats.Outcomes[kind] != n {
			t.Errorf("Outcomes[%s] = %d, want %d", kind, stats.Outcomes[kind], n)
		}
	}
	if stats.StatusFailures["/fib"]["500"] != 2 {
		t.Errorf("StatusFailures = %v", stats.StatusFailures)
	}
	if stats.Errors["*url.Error"] != 1 {
		t.Errorf("Errors = %v, want the transport cause type", stats.Errors)
	}
	if got := stats.FailureRate(); got != 0.8 {
		t.Errorf("FailureRate() = %v, want 0.8", got)
	}
	if stats.RequestsPerSec != 5 {
		t.Errorf("RequestsPerSec = %v, want 5", stats.RequestsPerSec)
	}
}

func TestJSONReportSchema(t *testing.T) {
	c := metrics.NewCollector()

	c.Record(passed(15 * time.Millisecond))
	c.Record(passed(25 * time.Millisecond))

	data, err := json.Marshal(c.Stats(100 * time.Millisecond))
	if err != nil {
		t.Fatalf("failed to marshal stats: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	requiredFields := []string{"completed", "passed", "failed", "min_latency_ms", "max_latency_ms", "mean_latency_ms", "p50_latency_ms", "p90_latency_ms", "p99_latency_ms", "duration_ms", "requests_per_sec", "outcomes"}
	for _, field := range requiredFields {
		if _, ok := parsed[field]; !ok {
			t.Errorf("missing field %q in JSON output", field)
		}
	}
}

func TestConcurrentRecording(t *testing.T) {
	c := metrics.NewCollector()

	var wg sync.WaitGroup
	workers := 10
	recordsPerWorker := 100

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < recordsPerWorker; j++ {
				c.Record(passed(time.Millisecond))
			}
		}()
	}
	wg.Wait()

	if got := c.Completed(); got != int64(workers*recordsPerWorker) {
		t.Errorf("expected %d completed, got %d", workers*recordsPerWorker, got)
	}
}

func TestFriendlyErrorName(t *testing.T) {
	tests := map[string]string{
		"":                              "Unknown error",
		"*url.Error":                    "Request URL error",
		"*runner.StatusMismatchError":   "Unexpected status code",
		"*net.OpError":                  "Network error",
		"context.deadlineExceededError": "Context deadline exceeded",
		"*tls.RecordHeaderError":        "Record Header Error (tls)",
		"*github.com/x/y/pkg.MyErr":     "My Err (pkg)",
	}
	for in, want := range tests {
		if got := metrics.FriendlyErrorName(in); got != want {
			t.Errorf("FriendlyErrorName(%q) = %q, want %q", in, got, want)
		}
	}
}
