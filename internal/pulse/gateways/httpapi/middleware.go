package httpapi

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/haukened/sitepulse/internal/pulse/common/log"
)

// ForwardedForHeader is preferred over the connection address when present.
const ForwardedForHeader = "X-Forwarded-For"

// ClientID identifies the client of r for presence tracking. The forwarded
// header is used verbatim, with repeated header lines joined by ", ";
// otherwise the host part of the connection address, or the raw address if
// it has no port.
func ClientID(r *http.Request) string {
	if forwarded := strings.Join(r.Header.Values(ForwardedForHeader), ", "); forwarded != "" {
		return forwarded
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Tracking runs tracker for every request whose path is not in skip, then
// passes the request on unchanged.
func Tracking(tracker RequestTracker, skip ...string) func(http.Handler) http.Handler {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skipped[r.URL.Path]; !ok {
				tracker.Track(r.URL.Path, ClientID(r))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Instrument logs each request at debug level and counts it in metrics when
// metrics is non-nil.
func Instrument(logger log.Logger, metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if metrics != nil {
				metrics.RequestsTotal.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
			}
			logger.Debug(map[string]any{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   status,
				"bytes":    ww.BytesWritten(),
				"duration": time.Since(start).String(),
				"client":   ClientID(r),
			}, "HTTP request handled")
		})
	}
}
