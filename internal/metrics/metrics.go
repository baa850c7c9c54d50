package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sparedge/sparedge/internal/config"
)

var Enabled bool
var registry = prometheus.NewRegistry()

var (
	RequestsArrived = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "sparedge_requests_total",
		Help: "Invocation requests received by this node.",
	})
	RequestsForwarded = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "sparedge_requests_forwarded_total",
		Help: "Requests dispatched to a neighbor node.",
	})
	RequestsDropped = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "sparedge_requests_dropped_total",
		Help: "Requests that ended as exhausted or failed.",
	})
)

func Init() {
	if config.GetBool(config.METRICS_ENABLED, false) {
		log.Println("Metrics enabled.")
		Enabled = true
	} else {
		log.Println("Metrics disabled.")
		Enabled = false
		return
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true})
	http.Handle("/metrics", handler)
	http.ListenAndServe(":2112", nil)
}
