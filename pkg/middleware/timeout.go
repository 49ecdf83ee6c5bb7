package middleware

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"roomkeeper/pkg/logger"
)

// timeoutWriter drops writes from a handler that is still running after its
// deadline fired.
type timeoutWriter struct {
	http.ResponseWriter
	mu       sync.Mutex
	timedOut bool
	written  bool
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.timedOut || tw.written {
		return
	}
	tw.written = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	tw.written = true
	return tw.ResponseWriter.Write(b)
}

// expire marks the writer timed out and reports whether the handler had
// already started its response.
func (tw *timeoutWriter) expire() (started bool) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.timedOut = true
	return tw.written
}

// RequestTimeout bounds every request by timeout, except requests whose path
// is listed in exempt.
func RequestTimeout(timeout time.Duration, log *logger.Logger, exempt ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(exempt, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			r = r.WithContext(ctx)

			tw := &timeoutWriter{ResponseWriter: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(tw, r)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				started := tw.expire()
				log.Warn("Request timed out",
					"method", r.Method,
					"path", r.URL.Path,
					"timeout", timeout,
					"response_started", started,
				)
				if !started {
					writeJSONError(w, http.StatusServiceUnavailable, "Request timeout", "SERVICE_UNAVAILABLE")
				}
			}
		})
	}
}
