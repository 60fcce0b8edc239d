// Package sampleserver serves the routes exercised by the built-in checks.
package sampleserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
)

const maxRequestBody = 64 * 1024

// SampleDocument is served from /sample.json.
const SampleDocument = `{"name": "crankcheck", "routes": ["/hello", "/fib", "/helloname", "/sample.json"]}`

// NewMux returns a handler for /hello, /fib, /helloname and /sample.json.
// Inputs are read from a JSON request body regardless of method.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/hello", handleHello)
	mux.HandleFunc("/fib", handleFib)
	mux.HandleFunc("/helloname", handleHelloName)
	mux.HandleFunc("/sample.json", handleSample)
	return mux
}

func handleHello(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, `{"message": "Hello, world!"}`)
}

func handleFib(w http.ResponseWriter, r *http.Request) {
	body, ok := readJSON(w, r)
	if !ok {
		return
	}
	n := gjson.GetBytes(body, "value")
	if n.Type != gjson.Number || n.Num != float64(n.Int()) || n.Int() < 0 || n.Int() > 92 {
		respond(w, http.StatusBadRequest, `{"error": "value must be an integer between 0 and 92"}`)
		return
	}
	respond(w, http.StatusOK, fmt.Sprintf(`{"value": %d}`, Fib(n.Int())))
}

func handleHelloName(w http.ResponseWriter, r *http.Request) {
	body, ok := readJSON(w, r)
	if !ok {
		return
	}
	name := gjson.GetBytes(body, "name")
	if name.Type != gjson.String || name.Str == "" {
		respond(w, http.StatusBadRequest, `{"error": "name is required"}`)
		return
	}
	message, _ := json.Marshal("Hello, " + name.Str + "!")
	respond(w, http.StatusOK, fmt.Sprintf(`{"message": %s}`, message))
}

func handleSample(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, SampleDocument)
}

func readJSON(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil || !gjson.ValidBytes(body) {
		respond(w, http.StatusBadRequest, `{"error": "invalid JSON body"}`)
		return nil, false
	}
	return body, true
}

func respond(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// Fib returns the nth Fibonacci number with Fib(0) == 0.
func Fib(n int64) int64 {
	var a, b int64 = 0, 1
	for i := int64(0); i < n; i++ {
		a, b = b, a+b
	}
	return a
}
