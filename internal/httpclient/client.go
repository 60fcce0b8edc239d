package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/torosent/crankcheck/internal/tracing"
)

// MaxBodyReadSize caps how much of a response body is read.
const MaxBodyReadSize = 1024 * 1024

// ErrBodyTooLarge is returned by Send when a response body exceeds
// MaxBodyReadSize. A cut-down body is never handed back.
var ErrBodyTooLarge = fmt.Errorf("response body exceeds %d bytes", MaxBodyReadSize)

// Request is a transport-level description of one call.
type Request struct {
	Hostname string
	Port     int
	Path     string
	Method   string
	Body     []byte
	Header   http.Header
}

// Response is a fully received reply.
type Response struct {
	StatusCode int
	Body       []byte
}

type RequestBuilder struct {
	headers   http.Header
	propagate bool
}

// NewRequestBuilder validates static headers added to every request.
func NewRequestBuilder(headers map[string]string) (*RequestBuilder, error) {
	h := http.Header{}
	for key, value := range headers {
		if strings.ContainsAny(key, "\r\n") {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		canonicalKey := http.CanonicalHeaderKey(trimmedKey)
		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("invalid header value for %s", canonicalKey)
		}
		h.Set(canonicalKey, value)
	}
	return &RequestBuilder{headers: h}, nil
}

// WithTracePropagation injects W3C trace context headers into built requests.
func (b *RequestBuilder) WithTracePropagation(enabled bool) *RequestBuilder {
	b.propagate = enabled
	return b
}

// Build creates an *http.Request for r. Content-Type is always
// application/json and the content length is the payload byte length.
func (b *RequestBuilder) Build(ctx context.Context, r Request) (*http.Request, error) {
	if b == nil {
		return nil, errors.New("builder cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	hostname := strings.TrimSpace(r.Hostname)
	if hostname == "" {
		return nil, errors.New("hostname is required")
	}
	if r.Port <= 0 || r.Port > 65535 {
		return nil, fmt.Errorf("port %d is out of range", r.Port)
	}
	path := r.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	target := &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(hostname, strconv.Itoa(r.Port)),
	}
	parsed, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("request path %q: %w", r.Path, err)
	}
	target.Path = parsed.Path
	target.RawPath = parsed.RawPath
	target.RawQuery = parsed.RawQuery

	method := strings.ToUpper(strings.TrimSpace(r.Method))
	if method == "" {
		method = http.MethodGet
	}

	body := NewBodySource(r.Body)
	reader, err := body.NewReader()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		_ = reader.Close()
		return nil, err
	}

	req.Header = make(http.Header, len(b.headers)+len(r.Header)+1)
	for key, values := range b.headers {
		for _, val := range values {
			req.Header.Add(key, val)
		}
	}
	for key, values := range r.Header {
		for _, val := range values {
			req.Header.Add(key, val)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	if length, ok := body.ContentLength(); ok {
		req.ContentLength = length
	}
	req.GetBody = body.NewReader

	if b.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	return req, nil
}

// Client sends Requests over HTTP and reads complete responses.
type Client struct {
	http    *http.Client
	builder *RequestBuilder
}

// NewTransport wraps an *http.Client. A nil builder adds no static headers.
func NewTransport(client *http.Client, builder *RequestBuilder) *Client {
	if client == nil {
		client = NewClient(0)
	}
	if builder == nil {
		builder = &RequestBuilder{headers: http.Header{}}
	}
	return &Client{http: client, builder: builder}
}

// Send issues r and returns once the whole body has arrived. Any failure
// before that point is returned as an error.
func (c *Client) Send(ctx context.Context, r Request) (Response, error) {
	req, err := c.builder.Build(ctx, r)
	if err != nil {
		return Response{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyReadSize+1))
	if err != nil {
		return Response{}, fmt.Errorf("read response body: %w", err)
	}
	if len(body) > MaxBodyReadSize {
		return Response{}, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, ErrBodyTooLarge)
	}

	return Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() {
	c.http.CloseIdleConnections()
}

func NewClient(timeout time.Duration) *http.Client {
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
