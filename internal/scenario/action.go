// Package scenario defines the scripted requests a crankcheck run issues.
package scenario

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingEndpoint = errors.New("endpoint is required")
	ErrMissingVerb     = errors.New("verb is required")
)

// Action is one scripted HTTP request and its expected outcome.
// Actions are immutable; build them with NewAction.
type Action struct {
	endpoint       string
	verb           string
	payload        string
	expectedStatus int
	expectedBody   *string
}

// Body returns a pointer to s for use as an expected body.
func Body(s string) *string {
	return &s
}

// NewAction validates and builds an Action. An empty payload sends no body.
// A nil expectedBody matches any response body.
func NewAction(endpoint, verb, payload string, expectedStatus int, expectedBody *string) (Action, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return Action{}, ErrMissingEndpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		return Action{}, fmt.Errorf("endpoint %q must start with /", endpoint)
	}
	if strings.ContainsAny(endpoint, " \r\n") {
		return Action{}, fmt.Errorf("endpoint %q contains whitespace", endpoint)
	}

	verb = strings.ToUpper(strings.TrimSpace(verb))
	if verb == "" {
		return Action{}, ErrMissingVerb
	}
	if !isToken(verb) {
		return Action{}, fmt.Errorf("verb %q is not a valid HTTP method", verb)
	}

	if expectedStatus < 100 || expectedStatus > 599 {
		return Action{}, fmt.Errorf("expected status %d is outside 100-599", expectedStatus)
	}

	a := Action{
		endpoint:       endpoint,
		verb:           verb,
		payload:        payload,
		expectedStatus: expectedStatus,
	}
	if expectedBody != nil {
		body := *expectedBody
		a.expectedBody = &body
	}
	return a, nil
}

// MustAction is like NewAction but panics on invalid input. Intended for
// static scenario tables.
func MustAction(endpoint, verb, payload string, expectedStatus int, expectedBody *string) Action {
	a, err := NewAction(endpoint, verb, payload, expectedStatus, expectedBody)
	if err != nil {
		panic(fmt.Sprintf("scenario: %v", err))
	}
	return a
}

func (a Action) Endpoint() string { return a.endpoint }

func (a Action) Verb() string { return a.verb }

// Payload returns the request body; empty means none is sent.
func (a Action) Payload() string { return a.payload }

func (a Action) HasPayload() bool { return a.payload != "" }

func (a Action) ExpectedStatus() int { return a.expectedStatus }

// ExpectedBody reports the body to compare against, if any.
func (a Action) ExpectedBody() (string, bool) {
	if a.expectedBody == nil {
		return "", false
	}
	return *a.expectedBody, true
}

func (a Action) String() string {
	return a.verb + " " + a.endpoint
}

// isToken reports whether s is an RFC 7230 token, the form net/http accepts
// as a request method.
func isToken(s string) bool {
	for _, r := range s {
		if r > 0x7e || r <= ' ' || strings.ContainsRune("\"(),/:;<=>?@[\\]{}", r) {
			return false
		}
	}
	return true
}
