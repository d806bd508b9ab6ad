package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections",
		Help: "Currently attached WebSocket clients.",
	})
	wsSlowClientDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ws_slow_client_drops_total",
		Help: "Connections dropped because their send queue filled up.",
	})
)

// SetWSConnections records the current connection count.
func SetWSConnections(n int) {
	wsConnections.Set(float64(n))
}

// IncWSSlowClientDrops counts a connection dropped for backpressure.
func IncWSSlowClientDrops() {
	wsSlowClientDrops.Inc()
}
