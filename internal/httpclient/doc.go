// Package httpclient is the HTTP transport for crankcheck.
//
// A [Request] names the target host, port, path, method and payload of one
// scripted call. [RequestBuilder] turns it into an *http.Request with
// Content-Type application/json and a Content-Length equal to the payload's
// byte length (zero when there is no payload):
//
//	builder, err := httpclient.NewRequestBuilder(nil)
//	if err != nil {
//		return err
//	}
//	req, err := builder.Build(ctx, httpclient.Request{
//		Hostname: "localhost",
//		Port:     8000,
//		Path:     "/fib",
//		Method:   "GET",
//		Body:     []byte(`{"value": 10}`),
//	})
//
// [Client] is the transport used by the runner. Its Send method returns only
// after the full response body was received, or an error if the request could
// not complete:
//
//	transport := httpclient.NewTransport(httpclient.NewClient(30*time.Second), builder)
//	resp, err := transport.Send(ctx, request)
//
// Requests are plain HTTP; TLS targets are not supported.
package httpclient
