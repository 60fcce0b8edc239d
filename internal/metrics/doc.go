// Package metrics aggregates the outcomes of a crankcheck run.
//
// A [Collector] receives every [runner.Outcome] and keeps pass/fail counts,
// a breakdown per outcome kind, the status codes of status mismatches per
// endpoint, and a run-wide latency histogram:
//
//	collector := metrics.NewCollector()
//	result := r.Run(ctx, queue, collector.Record)
//	stats := collector.Stats(result.Duration)
//
// Latencies go into an HDR histogram covering 1µs to 60s with three
// significant figures, so P50/P90/P99 here are run-wide approximations. The
// exact per-endpoint P90 lives in the timing package.
//
// Transport errors carry no latency. They are counted by the type of their
// underlying cause; [FriendlyErrorName] turns such type names into labels.
//
// The Collector is safe for concurrent use.
package metrics
