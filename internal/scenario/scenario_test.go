package scenario

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNewActionValidation(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		verb     string
		status   int
		wantErr  error
		wantAny  bool
	}{
		{name: "valid", endpoint: "/hello", verb: "get", status: 200},
		{name: "missing endpoint", endpoint: " ", verb: "GET", status: 200, wantErr: ErrMissingEndpoint},
		{name: "missing verb", endpoint: "/hello", verb: "", status: 200, wantErr: ErrMissingVerb},
		{name: "relative endpoint", endpoint: "hello", verb: "GET", status: 200, wantAny: true},
		{name: "bad verb", endpoint: "/hello", verb: "GE T", status: 200, wantAny: true},
		{name: "status too low", endpoint: "/hello", verb: "GET", status: 42, wantAny: true},
		{name: "status too high", endpoint: "/hello", verb: "GET", status: 600, wantAny: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAction(tt.endpoint, tt.verb, "", tt.status, nil)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
			case tt.wantAny:
				if err == nil {
					t.Fatalf("expected error")
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestActionAccessors(t *testing.T) {
	expected := `{"value": 55}`
	a, err := NewAction("/fib", "get", `{"value": 10}`, 200, &expected)
	if err != nil {
		t.Fatalf("NewAction() error = %v", err)
	}
	expected = "mutated"

	if a.Verb() != "GET" {
		t.Errorf("Verb() = %q, want GET", a.Verb())
	}
	if !a.HasPayload() || a.Payload() != `{"value": 10}` {
		t.Errorf("Payload() = %q", a.Payload())
	}
	body, ok := a.ExpectedBody()
	if !ok || body != `{"value": 55}` {
		t.Errorf("ExpectedBody() = %q, %v; action must not alias caller memory", body, ok)
	}
	if a.String() != "GET /fib" {
		t.Errorf("String() = %q", a.String())
	}

	wild := MustAction("/sample.json", "GET", "", 200, nil)
	if _, ok := wild.ExpectedBody(); ok {
		t.Errorf("expected wildcard body")
	}
	if wild.HasPayload() {
		t.Errorf("expected no payload")
	}
}

func TestMustActionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustAction("", "GET", "", 200, nil)
}

func TestParseScenarioYAML(t *testing.T) {
	data := []byte(`
scenarios:
  - endpoint: /hello
    verb: get
    expected_status: 200
    expected_body: '{"message": "Hello, world!"}'
  - endpoint: /fib
    verb: get
    payload: '{"value": 10}'
    expected_body: '{"value": 55}'
  - endpoint: /sample.json
    verb: get
    expected_body: null
`)
	actions, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(actions) != 3 {
		t.Fatalf("len = %d, want 3", len(actions))
	}
	if actions[1].ExpectedStatus() != 200 {
		t.Errorf("default expected status = %d, want 200", actions[1].ExpectedStatus())
	}
	if _, ok := actions[2].ExpectedBody(); ok {
		t.Errorf("null expected_body should be a wildcard")
	}
}

func TestParseScenarioJSON(t *testing.T) {
	data := []byte(`{"scenarios": [{"endpoint": "/echo", "verb": "POST", "payload": "{\"a\": 1}", "expected_status": 201, "expected_body": ""}]}`)
	actions, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	body, ok := actions[0].ExpectedBody()
	if !ok || body != "" {
		t.Fatalf("expected explicit empty body, got %q, %v", body, ok)
	}
	if actions[0].ExpectedStatus() != 201 {
		t.Fatalf("ExpectedStatus() = %d", actions[0].ExpectedStatus())
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"empty":        `scenarios: []`,
		"bad payload":  "scenarios:\n  - endpoint: /x\n    verb: POST\n    payload: '{not json'\n",
		"missing verb": "scenarios:\n  - endpoint: /x\n",
		"not yaml":     "scenarios: [",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(data)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenarios.yaml")
	if err := os.WriteFile(path, []byte("scenarios:\n  - endpoint: /hello\n    verb: GET\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	actions, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(actions) != 1 || actions[0].Endpoint() != "/hello" {
		t.Fatalf("unexpected actions %+v", actions)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestRepeatAndEndpoints(t *testing.T) {
	ops := Default()
	repeated := Repeat(ops, 10)
	if len(repeated) != 50 {
		t.Fatalf("len = %d, want 50", len(repeated))
	}
	if repeated[5] != ops[0] {
		t.Fatalf("repeat must preserve order")
	}
	if got := Repeat(ops, 0); len(got) != len(ops) {
		t.Fatalf("Repeat(0) len = %d, want %d", len(got), len(ops))
	}

	want := []string{"/hello", "/fib", "/helloname", "/sample.json"}
	if got := Endpoints(repeated); !reflect.DeepEqual(got, want) {
		t.Fatalf("Endpoints() = %v, want %v", got, want)
	}
}
