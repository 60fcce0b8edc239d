// Package runner dispatches scripted HTTP checks and reports their outcomes.
//
// A [Runner] sends each [scenario.Action] to one host, records the latency of
// every complete response in a [timing.Registry] and compares the response to
// the action's expected status and body:
//
//	r := runner.New(runner.Options{
//		Hostname:      "localhost",
//		Port:          8000,
//		RatePerSecond: 10,
//		Transport:     transport,
//		Registry:      registry,
//		Notifier:      runner.NewLogNotifier(logger),
//	})
//	result := r.Run(ctx, runner.NewQueue(actions), func(o runner.Outcome) {
//		// called once per action, never concurrently
//	})
//
// # Pacing
//
// With RatePerSecond set to zero every action is launched immediately,
// optionally capped by MaxInFlight. Actions are popped and numbered (Outcome.Seq)
// in queue order, but each one is sent from its own goroutine, so the order in
// which requests reach the wire is up to the Go scheduler. Set a rate, or
// MaxInFlight 1, when the target must see requests in program order. With a positive rate the runner
// dispatches one action per tick. Ticks come from a rate.Limiter with burst 1
// ([ArrivalModelUniform]) or from exponential gaps with the same mean
// ([ArrivalModelPoisson]). The scheduler never waits for a response before
// arming the next tick.
//
// # Outcomes
//
// Every dispatched action ends in exactly one [OutcomeKind]. Failures carry a
// typed error that can be matched with errors.As:
//
//   - [*StatusMismatchError]: the status differs from the expected one
//   - [*BodyMismatchError]: the status matched but the body text did not
//   - [*TransportError]: no complete response arrived, so no latency is
//     recorded in that case
//
// Actions are attempted once. There are no retries.
package runner
