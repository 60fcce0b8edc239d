package runner

import (
	"context"
	"math"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/time/rate"

	"github.com/torosent/crankcheck/internal/httpclient"
	"github.com/torosent/crankcheck/internal/timing"
)

// Transport sends one request and returns once the full response arrived.
type Transport interface {
	Send(ctx context.Context, req httpclient.Request) (httpclient.Response, error)
}

type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

// Options configure the Runner.
type Options struct {
	Hostname       string
	Port           int
	RatePerSecond  float64 // dispatches per second; 0 means unbounded
	MaxInFlight    int     // cap on outstanding requests in unbounded mode; 0 means no cap
	ArrivalModel   ArrivalModel
	RandomSeed     int64
	PoissonSampler func() float64 // optional; defaults to rand.ExpFloat64 seeded by RandomSeed
	LimiterFactory func(rps float64) *rate.Limiter
	Transport      Transport
	Registry       *timing.Registry
	Notifier       Notifier
	Tracer         trace.Tracer
}

func (o *Options) normalize() {
	if o.RatePerSecond < 0 || math.IsNaN(o.RatePerSecond) || math.IsInf(o.RatePerSecond, 0) {
		o.RatePerSecond = 0
	}
	if o.MaxInFlight < 0 {
		o.MaxInFlight = 0
	}
	if o.ArrivalModel == "" {
		o.ArrivalModel = ArrivalModelUniform
	}
	if o.RandomSeed == 0 {
		o.RandomSeed = time.Now().UnixNano()
	}
	if o.LimiterFactory == nil {
		o.LimiterFactory = func(rps float64) *rate.Limiter {
			if rps <= 0 {
				return rate.NewLimiter(rate.Inf, 0)
			}
			// Burst 1: the first dispatch goes out immediately, the rest
			// are spaced exactly 1/rps apart.
			return rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
	if o.Transport == nil {
		o.Transport = httpclient.NewTransport(httpclient.NewClient(30*time.Second), nil)
	}
	if o.Notifier == nil {
		o.Notifier = nopNotifier{}
	}
	if o.Tracer == nil {
		o.Tracer = noop.NewTracerProvider().Tracer("crankcheck")
	}
}
