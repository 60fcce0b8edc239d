package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/torosent/crankcheck/internal/config"
	"github.com/torosent/crankcheck/internal/httpclient"
	"github.com/torosent/crankcheck/internal/logging"
	"github.com/torosent/crankcheck/internal/metrics"
	"github.com/torosent/crankcheck/internal/output"
	"github.com/torosent/crankcheck/internal/runner"
	"github.com/torosent/crankcheck/internal/scenario"
	"github.com/torosent/crankcheck/internal/threshold"
	"github.com/torosent/crankcheck/internal/timing"
	"github.com/torosent/crankcheck/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tp, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	actions, err := loadActions(cfg)
	if err != nil {
		return err
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	registry, err := timing.NewRegistry(scenario.Endpoints(actions), timing.WithCapacity(cfg.SampleWindow))
	if err != nil {
		return err
	}

	builder, err := httpclient.NewRequestBuilder(cfg.Headers)
	if err != nil {
		return err
	}
	builder.WithTracePropagation(tp.ShouldPropagate())
	transport := httpclient.NewTransport(httpclient.NewClient(cfg.Timeout), builder)
	defer transport.CloseIdleConnections()

	r := runner.New(runner.Options{
		Hostname:      cfg.Host,
		Port:          cfg.Port,
		RatePerSecond: cfg.Rate,
		MaxInFlight:   cfg.MaxInFlight,
		ArrivalModel:  toRunnerArrivalModel(cfg.Arrival.Model),
		Transport:     transport,
		Registry:      registry,
		Notifier:      runner.NewLogNotifier(logger.Named("check")),
		Tracer:        tp.Tracer(),
	})

	collector := metrics.NewCollector()
	total := int64(len(actions))

	if cfg.Progress && !cfg.JSONOutput {
		progress := output.NewProgressReporter(collector, total, progressInterval, stderr)
		progress.Start()
		defer progress.Stop()
	}

	startedAt := time.Now()
	sugar := logger.Sugar()
	logger.Info("starting run",
		zap.String("target", target(cfg)),
		zap.Int64("actions", total),
		zap.Float64("rate", cfg.Rate),
		zap.Int("sample_window", registry.Capacity()),
	)

	queue := runner.NewQueue(actions)
	result := r.Run(ctx, queue, func(o runner.Outcome) {
		collector.Record(o)
		completed := collector.Completed()
		if o.Passed() {
			sugar.Debugf("Run %d completed successfully.", completed)
		} else {
			sugar.Debugf("Run %d completed with errors: %v", completed, o.Err)
		}
		if completed == total {
			logger.Debug("all actions completed")
		}
	})

	if ctx.Err() != nil {
		logger.Warn("run interrupted",
			zap.Int64("dispatched", result.Dispatched),
			zap.Int("skipped", queue.Len()),
		)
	}
	sugar.Infof("Load test completed: %d runs, %d errors.", result.Completed, result.Errors)

	stats := collector.Stats(result.Duration)
	report := registry.Report()
	summary := output.Summary{
		RunID:      output.NewRunID(startedAt),
		StartedAt:  startedAt,
		Target:     target(cfg),
		Stats:      stats,
		Latency:    report,
		Thresholds: threshold.NewEvaluator(thresholds).Evaluate(stats, report),
	}

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(stdout, summary); err != nil {
			return err
		}
	} else {
		output.PrintReport(stdout, summary)
	}

	if cfg.HistoryFile != "" {
		if err := output.AppendHistory(cfg.HistoryFile, summary); err != nil {
			logger.Error("failed to append run history", zap.String("path", cfg.HistoryFile), zap.Error(err))
		}
	}

	if summary.Passed() {
		return nil
	}
	if result.Errors > 0 {
		return fmt.Errorf("%d of %d actions failed", result.Errors, result.Completed)
	}
	return errors.New("one or more thresholds failed")
}

func loadActions(cfg *config.Config) ([]scenario.Action, error) {
	actions := scenario.Default()
	if cfg.ScenarioFile != "" {
		loaded, err := scenario.Load(cfg.ScenarioFile)
		if err != nil {
			return nil, err
		}
		actions = loaded
	}
	return scenario.Repeat(actions, cfg.Repeat), nil
}

func target(cfg *config.Config) string {
	return "http://" + cfg.Host + ":" + strconv.Itoa(cfg.Port)
}

func toRunnerArrivalModel(model config.ArrivalModel) runner.ArrivalModel {
	switch model {
	case config.ArrivalModelPoisson:
		return runner.ArrivalModelPoisson
	default:
		return runner.ArrivalModelUniform
	}
}
