package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/story-adventure/internal/logger"
	"github.com/jwebster45206/story-adventure/internal/metrics"
)

// RequestIDHeader carries the request id; an incoming value is reused.
const RequestIDHeader = "X-Request-ID"

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Flush keeps server-sent event streams working through the wrapper.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Logger logs every request once it completes and counts it by status.
// Server errors log at Error, client errors at Warn, the rest at Info.
func Logger(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)
		reqLog := logger.WithRequestID(log, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		metrics.ObserveRequest(r.Method, strconv.Itoa(rec.status))

		attrs := []any{
			"status", rec.status,
			"method", r.Method,
			"path", r.URL.Path,
			"latency", time.Since(start),
			"bytes", rec.bytes,
			"remote_addr", r.RemoteAddr,
		}
		switch {
		case rec.status >= http.StatusInternalServerError:
			reqLog.Error("Request handled", attrs...)
		case rec.status >= http.StatusBadRequest:
			reqLog.Warn("Request handled", attrs...)
		default:
			reqLog.Info("Request handled", attrs...)
		}
	})
}
