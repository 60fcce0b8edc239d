package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"
)

type Config struct {
	Host         string            `mapstructure:"host"`
	Port         int               `mapstructure:"port"`
	Rate         float64           `mapstructure:"rate"`
	Repeat       int               `mapstructure:"repeat"`
	ScenarioFile string            `mapstructure:"scenario"`
	Timeout      time.Duration     `mapstructure:"timeout"`
	MaxInFlight  int               `mapstructure:"max_in_flight"`
	SampleWindow int               `mapstructure:"sample_window"`
	Arrival      ArrivalConfig     `mapstructure:"arrival"`
	Headers      map[string]string `mapstructure:"headers"`
	JSONOutput   bool              `mapstructure:"json_output"`
	Progress     bool              `mapstructure:"progress"`
	LogLevel     string            `mapstructure:"log_level"`
	LogFormat    string            `mapstructure:"log_format"`
	Thresholds   []string          `mapstructure:"thresholds"`
	HistoryFile  string            `mapstructure:"history_file"`
	Tracing      TracingConfig     `mapstructure:"tracing"`
	ConfigFile   string            `mapstructure:"-"`
}

type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

type ArrivalConfig struct {
	Model ArrivalModel `mapstructure:"model"`
}

// TracingConfig controls OpenTelemetry export. Tracing is off unless an
// endpoint is set here or through OTEL_EXPORTER_OTLP_ENDPOINT.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
	Propagate   *bool   `mapstructure:"propagate"`
}

func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// ShouldPropagate defaults to true when tracing is enabled.
func (t TracingConfig) ShouldPropagate() bool {
	if t.Propagate != nil {
		return *t.Propagate
	}
	return t.Enabled()
}

const (
	DefaultHost         = "localhost"
	DefaultPort         = 8000
	DefaultTimeout      = 30 * time.Second
	DefaultSampleWindow = 1000

	// The built-in load pass: every check ten times at ten dispatches a second.
	DefaultRate   = 10.0
	DefaultRepeat = 10
)

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Host:         DefaultHost,
		Port:         DefaultPort,
		Rate:         DefaultRate,
		Repeat:       DefaultRepeat,
		Timeout:      DefaultTimeout,
		SampleWindow: DefaultSampleWindow,
		Arrival:      ArrivalConfig{Model: ArrivalModelUniform},
		Headers:      map[string]string{},
		LogLevel:     "info",
		LogFormat:    "console",
		Tracing:      TracingConfig{SampleRate: 1.0},
	}
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.Host) == "" {
		issues = append(issues, "host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		issues = append(issues, fmt.Sprintf("port must be between 1 and 65535, got %d", c.Port))
	}
	if math.IsNaN(c.Rate) || math.IsInf(c.Rate, 0) {
		issues = append(issues, fmt.Sprintf("rate must be a finite number, got %v", c.Rate))
	} else if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Repeat < 0 {
		issues = append(issues, "repeat must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if c.MaxInFlight < 0 {
		issues = append(issues, "max_in_flight must be >= 0")
	}
	if c.SampleWindow < 0 {
		issues = append(issues, "sample_window must be >= 0")
	}

	if c.Rate > 1000 {
		fmt.Fprintf(os.Stderr, "WARNING: High rate configured (%g RPS). Ensure you have authorization to test the target system.\n", c.Rate)
	}

	issues = append(issues, validateArrivalConfig(c.Arrival, c.Rate)...)
	issues = append(issues, validateLogging(c.LogLevel, c.LogFormat)...)
	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateArrivalConfig(arr ArrivalConfig, rate float64) []string {
	model := arr.Model
	if model == "" {
		model = ArrivalModelUniform
	}
	switch model {
	case ArrivalModelUniform:
		return nil
	case ArrivalModelPoisson:
		if rate == 0 {
			return []string{"arrival model poisson requires rate > 0"}
		}
		return nil
	default:
		return []string{fmt.Sprintf("arrival model %q is not supported", model)}
	}
}

func validateLogging(level, format string) []string {
	var issues []string
	switch strings.ToLower(level) {
	case "", "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Sprintf("log_level %q is not supported", level))
	}
	switch strings.ToLower(format) {
	case "", "console", "json":
	default:
		issues = append(issues, fmt.Sprintf("log_format %q is not supported", format))
	}
	return issues
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", t.Protocol))
	}
	if !(t.SampleRate >= 0 && t.SampleRate <= 1) {
		issues = append(issues, "tracing: sample_rate must be between 0.0 and 1.0")
	}
	return issues
}
