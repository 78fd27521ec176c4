// nolint: mnd
package response

import (
	"io"
	"net/http"
	"sync"

	"github.com/felixge/httpsnoop"
	"github.com/trebent/zerologr"
	"go.opentelemetry.io/otel/codes"
)

type (
	BodyWrapper struct {
		body  io.ReadCloser
		bytes int64
	}
	Wrapper struct {
		responseWriter http.ResponseWriter
		lock           *sync.Mutex

		bytes       int64
		wroteHeader bool
		statusCode  int
	}
)

var (
	_ http.ResponseWriter = &Wrapper{}
	_ http.Flusher        = &Wrapper{}

	_ io.ReadCloser = &BodyWrapper{}
)

func NewBodyWrapper(body io.ReadCloser) *BodyWrapper {
	return &BodyWrapper{body: body}
}

func (bw *BodyWrapper) Close() error {
	return bw.body.Close()
}

func (bw *BodyWrapper) Read(p []byte) (int, error) {
	n, err := bw.body.Read(p)
	bw.bytes += int64(n)
	return n, err
}

func (bw *BodyWrapper) NumBytes() int64 {
	return bw.bytes
}

// NewWrapper wraps a response writer to capture the status code and body
// size of whatever the fake server handlers write. The returned writer
// keeps any optional interfaces of the original through httpsnoop.
func NewWrapper(responseWriter http.ResponseWriter) (http.ResponseWriter, *Wrapper) {
	w := &Wrapper{lock: &sync.Mutex{}, responseWriter: responseWriter}
	return httpsnoop.Wrap(responseWriter, httpsnoop.Hooks{
		Header: func(httpsnoop.HeaderFunc) httpsnoop.HeaderFunc {
			return w.Header
		},
		Write: func(httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return w.Write
		},
		WriteHeader: func(httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return w.WriteHeader
		},
		Flush: func(httpsnoop.FlushFunc) httpsnoop.FlushFunc {
			return w.Flush
		},
	}), w
}

func (r *Wrapper) Header() http.Header {
	return r.responseWriter.Header()
}

func (r *Wrapper) Write(p []byte) (int, error) {
	zerologr.V(100).Info("Write", "len", len(p))

	n, err := r.responseWriter.Write(p)
	r.bytes += int64(n)
	return n, err
}

func (r *Wrapper) WriteHeader(statusCode int) {
	zerologr.V(100).Info("WriteHeader", "status_code", statusCode)

	r.lock.Lock()
	defer r.lock.Unlock()

	if !r.wroteHeader {
		r.wroteHeader = true
		r.statusCode = statusCode
	}

	r.responseWriter.WriteHeader(statusCode)
}

func (r *Wrapper) Flush() {
	zerologr.V(100).Info("Flush response")

	r.WriteHeader(http.StatusOK)

	if f, ok := r.responseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *Wrapper) NumBytes() int64 {
	return r.bytes
}

func (r *Wrapper) StatusCode() int {
	return r.statusCode
}

func (r *Wrapper) SpanStatus() (codes.Code, string) {
	if !r.wroteHeader {
		return codes.Error, "no available status code"
	}

	if r.statusCode >= 400 {
		return codes.Error, http.StatusText(r.statusCode)
	}

	return codes.Ok, http.StatusText(r.statusCode)
}
