// Package timing tracks per-endpoint latency for a crankcheck run.
//
// A [Registry] is created by the driver with the distinct endpoints of its
// scenario list and handed to the runner, which records one duration per
// completed response:
//
//	reg, err := timing.NewRegistry([]string{"/hello", "/fib"})
//	if err != nil {
//		return err
//	}
//	reg.Record("/hello", start, time.Now())
//	report := reg.Report()
//
// # Sample Window
//
// Each endpoint keeps its count and total duration for the whole run, but only
// the most recent samples (1000 by default, see [WithCapacity]) for the P90
// estimate. The window is a ring buffer: once full, every new sample
// overwrites the oldest one. P90 is the value at rank ceil(0.9*n) of the
// window sorted ascending, so it is exact for the retained samples and
// describes recent behaviour only when a run records more than the window
// holds. Every [Registry.Report] sorts a copy of each window.
//
// # Thread Safety
//
// A Registry is safe for concurrent use. Counters and the sample window of an
// endpoint are updated together under one lock.
package timing
