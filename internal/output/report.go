package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/torosent/crankcheck/internal/metrics"
	"github.com/torosent/crankcheck/internal/threshold"
	"github.com/torosent/crankcheck/internal/timing"
)

// Summary is everything reported about one run.
type Summary struct {
	RunID      string             `json:"run_id"`
	StartedAt  time.Time          `json:"started_at"`
	Target     string             `json:"target"`
	Stats      metrics.Stats      `json:"stats"`
	Latency    timing.Report      `json:"latency"`
	Thresholds []threshold.Result `json:"thresholds,omitempty"`
}

// Passed reports whether every action passed and every threshold held.
func (s Summary) Passed() bool {
	return s.Stats.Failed == 0 && threshold.AllPassed(s.Thresholds)
}

// NewRunID returns a lexically sortable id for a run started at t.
func NewRunID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, s Summary) {
	stats := s.Stats
	fmt.Fprintln(w, "\n--- Check Results ---")
	fmt.Fprintf(w, "Run:               %s\n", s.RunID)
	fmt.Fprintf(w, "Target:            %s\n", s.Target)
	fmt.Fprintf(w, "Completed:         %d\n", stats.Completed)
	fmt.Fprintf(w, "Passed:            %d\n", stats.Passed)
	fmt.Fprintf(w, "Failed:            %d\n", stats.Failed)
	fmt.Fprintf(w, "Duration:          %s\n", stats.Duration)
	fmt.Fprintf(w, "Requests/sec:      %.2f\n", stats.RequestsPerSec)

	if stats.Failed > 0 {
		fmt.Fprintln(w, "\nFailures:")
		kinds := make([]string, 0, len(stats.Outcomes))
		for kind := range stats.Outcomes {
			if kind != "pass" {
				kinds = append(kinds, kind)
			}
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			fmt.Fprintf(w, "  %-16s %d\n", kind+":", stats.Outcomes[kind])
		}
		if rows := metrics.FlattenStatusBuckets(stats.StatusFailures); len(rows) > 0 {
			fmt.Fprintln(w, "  Unexpected status codes:")
			for _, row := range rows {
				fmt.Fprintf(w, "    %s %s: %d\n", row.Endpoint, row.Code, row.Count)
			}
		}
		if len(stats.Errors) > 0 {
			fmt.Fprintln(w, "  Transport errors:")
			names := make([]string, 0, len(stats.Errors))
			for name := range stats.Errors {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(w, "    %s: %d\n", metrics.FriendlyErrorName(name), stats.Errors[name])
			}
		}
	}

	if stats.Responses > 0 {
		fmt.Fprintln(w, "\nLatency:")
		fmt.Fprintf(w, "  Min:             %s\n", stats.MinLatency)
		fmt.Fprintf(w, "  Max:             %s\n", stats.MaxLatency)
		fmt.Fprintf(w, "  Mean:            %s\n", stats.MeanLatency)
		fmt.Fprintf(w, "  P50:             %s\n", stats.P50Latency)
		fmt.Fprintf(w, "  P90:             %s\n", stats.P90Latency)
		fmt.Fprintf(w, "  P99:             %s\n", stats.P99Latency)
	}

	PrintTimings(w, s.Latency)

	if len(s.Thresholds) > 0 {
		fmt.Fprintln(w, "\nThresholds:")
		for _, r := range s.Thresholds {
			fmt.Fprintf(w, "  %s\n", r.Message)
		}
	}
}

// PrintTimings writes the per-endpoint latency block. Endpoints without
// samples only show their request count.
func PrintTimings(w io.Writer, report timing.Report) {
	if len(report.Endpoints) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, ep := range report.Endpoints {
		fmt.Fprintf(w, "Endpoint: %s\n", ep.Endpoint)
		fmt.Fprintf(w, "  Total Requests: %d\n", ep.Count)
		if ep.Count == 0 {
			continue
		}
		fmt.Fprintf(w, "  Average Time: %.2f ms\n", ep.AverageMs)
		if ep.P90Ms != nil {
			fmt.Fprintf(w, "  P90: %.2f ms\n", *ep.P90Ms)
		}
		if ep.Clamped > 0 {
			fmt.Fprintf(w, "  Clamped samples: %d\n", ep.Clamped)
		}
	}
	if report.Unknown > 0 {
		fmt.Fprintf(w, "Samples for unregistered endpoints: %d\n", report.Unknown)
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
