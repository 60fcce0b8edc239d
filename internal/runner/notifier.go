package runner

import (
	"go.uber.org/zap"
)

// Notifier is told about every completed action.
type Notifier interface {
	Passed(o Outcome)
	Failed(o Outcome)
}

type nopNotifier struct{}

func (nopNotifier) Passed(Outcome) {}
func (nopNotifier) Failed(Outcome) {}

type logNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier logs passes at info and failures at warn (mismatches) or
// error (transport failures).
func NewLogNotifier(logger *zap.Logger) Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &logNotifier{logger: logger}
}

func (n *logNotifier) Passed(o Outcome) {
	n.logger.Info("check passed",
		zap.Int64("seq", o.Seq),
		zap.String("verb", o.Action.Verb()),
		zap.String("endpoint", o.Action.Endpoint()),
		zap.Int("status", o.StatusCode),
		zap.Duration("latency", o.Latency),
	)
}

func (n *logNotifier) Failed(o Outcome) {
	fields := []zap.Field{
		zap.Int64("seq", o.Seq),
		zap.String("verb", o.Action.Verb()),
		zap.String("endpoint", o.Action.Endpoint()),
		zap.String("kind", o.Kind.String()),
	}
	switch e := o.Err.(type) {
	case *StatusMismatchError:
		fields = append(fields, zap.Int("expected", e.Expected), zap.Int("actual", e.Actual))
	case *BodyMismatchError:
		fields = append(fields, zap.String("expected", e.Expected), zap.String("actual", e.Actual))
	default:
		fields = append(fields, zap.Error(o.Err))
	}

	if o.Kind == OutcomeTransportError {
		n.logger.Error("check failed", fields...)
		return
	}
	n.logger.Warn("check failed", fields...)
}
