package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/web3-frozen/l2-showdown/internal/metrics"
)

// Metrics records Prometheus HTTP metrics labelled by chi route pattern, so
// /api/chains/{chain} is one series regardless of the chain requested.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			metrics.HTTPRequestsInFlight.Inc()
			defer metrics.HTTPRequestsInFlight.Dec()

			rec := newRecorder(w)
			next.ServeHTTP(rec, r)

			route := routePattern(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
