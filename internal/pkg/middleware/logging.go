package middleware

import (
	"net/http"
	"time"

	"github.com/mevzuatgpt/mevzuat/internal/pkg/logger"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Logging logs every request at debug level, and rejected or failed ones
// at warn.
func Logging(log *logger.Logger) func(http.Handler) http.Handler {
	log = log.WithComponent("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"client", getClientIP(r),
				"duration", time.Since(start).String(),
			}
			if rec.status >= http.StatusBadRequest {
				log.Warn("request rejected", attrs...)
				return
			}
			log.Debug("request served", attrs...)
		})
	}
}
