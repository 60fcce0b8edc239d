package scenario

import (
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// file is the on-disk layout of a scenario file. JSON files parse as YAML.
type file struct {
	Scenarios []entry `yaml:"scenarios"`
}

type entry struct {
	Endpoint       string  `yaml:"endpoint"`
	Verb           string  `yaml:"verb"`
	Payload        string  `yaml:"payload"`
	ExpectedStatus int     `yaml:"expected_status"`
	ExpectedBody   *string `yaml:"expected_body"`
}

// Load reads a YAML or JSON scenario file.
func Load(path string) ([]Action, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario file: %w", err)
	}
	actions, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenario file %s: %w", path, err)
	}
	return actions, nil
}

// Parse decodes scenario entries and validates each one. Payloads must be
// JSON since every request is sent as application/json.
func Parse(data []byte) ([]Action, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if len(f.Scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios defined")
	}

	actions := make([]Action, 0, len(f.Scenarios))
	for idx, e := range f.Scenarios {
		if e.Payload != "" && !gjson.Valid(e.Payload) {
			return nil, fmt.Errorf("scenarios[%d]: payload is not valid JSON", idx)
		}
		status := e.ExpectedStatus
		if status == 0 {
			status = 200
		}
		a, err := NewAction(e.Endpoint, e.Verb, strings.TrimSpace(e.Payload), status, e.ExpectedBody)
		if err != nil {
			return nil, fmt.Errorf("scenarios[%d]: %w", idx, err)
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// Default returns the built-in smoke checks against the sample routes.
func Default() []Action {
	return []Action{
		MustAction("/hello", "GET", "", 200, Body(`{"message": "Hello, world!"}`)),
		MustAction("/fib", "GET", `{"value": 10}`, 200, Body(`{"value": 55}`)),
		MustAction("/helloname", "GET", `{"name": "bob"}`, 200, Body(`{"message": "Hello, bob!"}`)),
		MustAction("/fib", "GET", `{"value": 20}`, 200, Body(`{"value": 6765}`)),
		MustAction("/sample.json", "GET", "", 200, nil),
	}
}

// Repeat concatenates n copies of actions. n < 1 is treated as 1.
func Repeat(actions []Action, n int) []Action {
	if n < 1 {
		n = 1
	}
	out := make([]Action, 0, len(actions)*n)
	for i := 0; i < n; i++ {
		out = append(out, actions...)
	}
	return out
}

// Endpoints returns the distinct endpoints of actions in first-seen order.
func Endpoints(actions []Action) []string {
	seen := make(map[string]struct{}, len(actions))
	var out []string
	for _, a := range actions {
		if _, ok := seen[a.endpoint]; ok {
			continue
		}
		seen[a.endpoint] = struct{}{}
		out = append(out, a.endpoint)
	}
	return out
}
