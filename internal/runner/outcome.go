package runner

import (
	"fmt"
	"time"

	"github.com/torosent/crankcheck/internal/scenario"
)

// OutcomeKind is the terminal state of one dispatched action.
type OutcomeKind int

const (
	OutcomePass OutcomeKind = iota
	OutcomeStatusMismatch
	OutcomeBodyMismatch
	OutcomeTransportError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomePass:
		return "pass"
	case OutcomeStatusMismatch:
		return "status_mismatch"
	case OutcomeBodyMismatch:
		return "body_mismatch"
	case OutcomeTransportError:
		return "transport_error"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is delivered exactly once per dispatched action.
type Outcome struct {
	Seq        int64
	Action     scenario.Action
	Kind       OutcomeKind
	StatusCode int
	Body       []byte
	Start      time.Time
	End        time.Time
	Latency    time.Duration // zero for transport errors
	Err        error
}

func (o Outcome) Passed() bool {
	return o.Kind == OutcomePass
}

// StatusMismatchError reports an unexpected response status.
type StatusMismatchError struct {
	Expected int
	Actual   int
}

func (e *StatusMismatchError) Error() string {
	return fmt.Sprintf("expected status %d, got %d", e.Expected, e.Actual)
}

// BodyMismatchError reports a response body that differs from the expected text.
type BodyMismatchError struct {
	Expected string
	Actual   string
}

func (e *BodyMismatchError) Error() string {
	return fmt.Sprintf("expected body %q, got %q", e.Expected, e.Actual)
}

// TransportError wraps a failure to obtain a complete response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// verify compares status first, then the body unless the action accepts any body.
func verify(action scenario.Action, statusCode int, body []byte) (OutcomeKind, error) {
	if statusCode != action.ExpectedStatus() {
		return OutcomeStatusMismatch, &StatusMismatchError{Expected: action.ExpectedStatus(), Actual: statusCode}
	}
	expected, ok := action.ExpectedBody()
	if !ok {
		return OutcomePass, nil
	}
	if actual := string(body); actual != expected {
		return OutcomeBodyMismatch, &BodyMismatchError{Expected: expected, Actual: actual}
	}
	return OutcomePass, nil
}
