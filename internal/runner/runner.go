package runner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/torosent/crankcheck/internal/httpclient"
	"github.com/torosent/crankcheck/internal/scenario"
	"github.com/torosent/crankcheck/internal/tracing"
)

// Callback receives each Outcome. Calls are serialized and arrive in
// completion order.
type Callback func(Outcome)

// Result captures execution summary.
type Result struct {
	Dispatched int64
	Completed  int64
	Errors     int64
	Duration   time.Duration
}

// Runner dispatches actions against one host and checks the responses.
type Runner struct {
	opt     Options
	arrival arrivalController
	seq     atomic.Int64
}

func New(opt Options) *Runner {
	opt.normalize()
	return &Runner{opt: opt, arrival: newArrivalController(opt)}
}

// Dispatch sends one action and blocks until its outcome is known. Timing is
// recorded only when a complete response arrived.
func (r *Runner) Dispatch(ctx context.Context, action scenario.Action) Outcome {
	return r.dispatch(ctx, r.seq.Add(1), action)
}

func (r *Runner) dispatch(ctx context.Context, seq int64, action scenario.Action) Outcome {
	out := Outcome{Seq: seq, Action: action}

	ctx, span := tracing.StartActionSpan(ctx, r.opt.Tracer, action.Verb(), action.Endpoint())

	req := httpclient.Request{
		Hostname: r.opt.Hostname,
		Port:     r.opt.Port,
		Path:     action.Endpoint(),
		Method:   action.Verb(),
	}
	if action.HasPayload() {
		req.Body = []byte(action.Payload())
	}

	out.Start = time.Now()
	resp, err := r.opt.Transport.Send(ctx, req)
	out.End = time.Now()

	if err != nil {
		out.Kind = OutcomeTransportError
		out.Err = &TransportError{Err: err}
	} else {
		out.StatusCode = resp.StatusCode
		out.Body = resp.Body
		out.Latency = out.End.Sub(out.Start)
		if r.opt.Registry != nil {
			r.opt.Registry.Record(action.Endpoint(), out.Start, out.End)
		}
		out.Kind, out.Err = verify(action, resp.StatusCode, resp.Body)
	}

	tracing.EndSpan(span, out.Err,
		attribute.Int("http.response.status_code", out.StatusCode),
		attribute.String("crankcheck.outcome", out.Kind.String()),
	)

	if out.Passed() {
		r.opt.Notifier.Passed(out)
	} else {
		r.opt.Notifier.Failed(out)
	}
	return out
}

// Run drains queue in order. With a rate set, dispatches are spaced by the
// arrival model; otherwise every action is launched at once, subject to
// MaxInFlight, and send order across goroutines is not guaranteed. Dispatch never waits for earlier responses. Run returns after
// the queue is empty (or ctx is cancelled) and every in-flight action has
// completed.
func (r *Runner) Run(ctx context.Context, queue *Queue, cb Callback) Result {
	start := time.Now()
	var dispatched, completed, errs int64

	// In-flight requests finish even if scheduling is cancelled.
	sendCtx := context.WithoutCancel(ctx)

	completions := make(chan Outcome)
	delivered := make(chan struct{})
	go func() {
		defer close(delivered)
		for out := range completions {
			completed++
			if !out.Passed() {
				errs++
			}
			if cb != nil {
				cb(out)
			}
		}
	}()

	var slots chan struct{}
	if r.opt.MaxInFlight > 0 {
		slots = make(chan struct{}, r.opt.MaxInFlight)
	}

	var wg sync.WaitGroup
	for ctx.Err() == nil {
		action, ok := queue.Pop()
		if !ok {
			break
		}
		if r.arrival != nil {
			if err := r.arrival.Wait(ctx); err != nil {
				break
			}
		}
		if slots != nil {
			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
			}
			if ctx.Err() != nil {
				break
			}
		}

		dispatched++
		wg.Add(1)
		go func(seq int64, action scenario.Action) {
			defer wg.Done()
			out := r.dispatch(sendCtx, seq, action)
			if slots != nil {
				<-slots
			}
			completions <- out
		}(r.seq.Add(1), action)
	}

	wg.Wait()
	close(completions)
	<-delivered

	return Result{
		Dispatched: dispatched,
		Completed:  completed,
		Errors:     errs,
		Duration:   time.Since(start),
	}
}
