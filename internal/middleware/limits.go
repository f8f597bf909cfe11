package middleware

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"
)

const (
	// DefaultMaxBodySize bounds cart and catalog JSON bodies.
	DefaultMaxBodySize int64 = 1 << 20

	// DefaultTimeout caps one request, order commits included.
	DefaultTimeout = 30 * time.Second
)

// MaxBodySize rejects requests whose declared length exceeds maxBytes with
// 413 and caps the rest with http.MaxBytesReader. Zero uses DefaultMaxBodySize.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxBytes {
				respondTooLarge(w, r)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// Timeout runs the handler with a deadline. The handler writes into a
// buffer; if the deadline passes first the client gets a 503 and the
// buffered output is discarded. Zero uses DefaultTimeout.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			tw := &timeoutWriter{header: make(http.Header), code: http.StatusOK}
			done := make(chan struct{})
			panicked := make(chan any, 1)

			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicked <- p
					}
				}()
				next.ServeHTTP(tw, r.WithContext(ctx))
				close(done)
			}()

			select {
			case p := <-panicked:
				panic(p)
			case <-done:
				tw.mu.Lock()
				defer tw.mu.Unlock()
				tw.flushTo(w)
			case <-ctx.Done():
				tw.mu.Lock()
				tw.timedOut = true
				tw.mu.Unlock()
				respondTimeout(w, r)
			}
		})
	}
}

// timeoutWriter buffers a handler's response until it finishes in time.
type timeoutWriter struct {
	mu       sync.Mutex
	header   http.Header
	buf      bytes.Buffer
	code     int
	wrote    bool
	timedOut bool
}

func (tw *timeoutWriter) Header() http.Header { return tw.header }

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.wrote || tw.timedOut {
		return
	}
	tw.wrote = true
	tw.code = code
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	tw.wrote = true
	return tw.buf.Write(b)
}

func (tw *timeoutWriter) flushTo(w http.ResponseWriter) {
	dst := w.Header()
	for k, v := range tw.header {
		dst[k] = v
	}
	w.WriteHeader(tw.code)
	_, _ = w.Write(tw.buf.Bytes())
}
