package httpclient

import (
	"bytes"
	"io"
	"net/http"
)

// BodySource produces a fresh request body for every attempt.
type BodySource interface {
	NewReader() (io.ReadCloser, error)
	ContentLength() (int64, bool)
}

// NewBodySource returns an inline source for payload, or an empty source when
// payload is empty.
func NewBodySource(payload []byte) BodySource {
	if len(payload) == 0 {
		return emptyBodySource{}
	}
	return &inlineBodySource{data: payload}
}

type inlineBodySource struct {
	data []byte
}

func (s *inlineBodySource) NewReader() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func (s *inlineBodySource) ContentLength() (int64, bool) {
	return int64(len(s.data)), true
}

type emptyBodySource struct{}

func (emptyBodySource) NewReader() (io.ReadCloser, error) {
	return http.NoBody, nil
}

func (emptyBodySource) ContentLength() (int64, bool) {
	return 0, true
}
