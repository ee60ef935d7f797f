package providers

import (
	"net/http"
	"time"
)

const unknownEndpoint = "other"

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// MetricsMiddleware records status and latency per registered route. Paths
// the router does not know are folded into one label.
func MetricsMiddleware(metrics MetricsProviderInterface, router RouterProviderInterface, next http.Handler) http.Handler {
	known := make(map[string]struct{})
	for _, route := range router.GetRoutes() {
		known[route.Url] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		endpoint := r.URL.Path
		if _, ok := known[endpoint]; !ok {
			endpoint = unknownEndpoint
		}
		metrics.IncRequestsTotal(endpoint, sw.status)
		metrics.ObserveRequestDuration(endpoint, time.Since(start))
	})
}
