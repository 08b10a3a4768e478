package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Timeout enforces a hard wall-clock budget on the synchronous part of a
// request. If the handler does not respond in time the caller gets a 408
// envelope; whatever the handler does afterwards is discarded, but not rolled
// back — a store write that completes late still stands.
func Timeout(budget time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), budget)
			defer cancel()

			tw := &timeoutWriter{w: w}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(tw, r.WithContext(ctx))
			}()

			select {
			case <-done:
				return
			case <-ctx.Done():
				if tw.markTimedOut() {
					logger.ErrorContext(r.Context(), "request timeout",
						"request_id", GetRequestID(r.Context()),
						"method", r.Method,
						"path", r.URL.Path,
						"budget", budget.String(),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusRequestTimeout)
					_, _ = w.Write([]byte(`{"success":false,"error":{"code":"REQUEST_TIMEOUT","message":"Request timeout - please try again"}}`))
				}
				// Wait for the handler so it never touches the connection
				// after this function returns. Its writes are discarded.
				<-done
			}
		})
	}
}

// timeoutWriter serializes access to the underlying ResponseWriter. Once the
// deadline fires, late handler writes are swallowed instead of corrupting the
// already-sent 408 response.
type timeoutWriter struct {
	mu       sync.Mutex
	w        http.ResponseWriter
	discard  http.Header
	timedOut bool
	wrote    bool
}

func (t *timeoutWriter) Header() http.Header {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timedOut {
		if t.discard == nil {
			t.discard = make(http.Header)
		}
		return t.discard
	}
	return t.w.Header()
}

func (t *timeoutWriter) Write(b []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timedOut {
		return len(b), nil
	}
	t.wrote = true
	return t.w.Write(b)
}

func (t *timeoutWriter) WriteHeader(status int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timedOut {
		return
	}
	t.wrote = true
	t.w.WriteHeader(status)
}

// markTimedOut flips the writer into discard mode. It returns false when the
// handler already produced a response, in which case the 408 must not be sent.
func (t *timeoutWriter) markTimedOut() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.wrote {
		return false
	}
	t.timedOut = true
	return true
}
