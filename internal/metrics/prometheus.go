// internal/metrics/prometheus.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fleetwatch/internal/database"
)

// Prometheus metrics
var (
	TickDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleetwatch_tick_duration_seconds",
			Help:    "Time spent running one evaluator tick",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"evaluator"},
	)

	HeartbeatsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetwatch_heartbeats_received_total",
			Help: "Total number of heartbeat signals accepted",
		},
		[]string{"component"},
	)

	ComponentHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fleetwatch_component_health",
			Help: "Overall component health (0=healthy, 1=warning, 2=critical, 3=offline, 4=unknown)",
		},
		[]string{"component"},
	)

	FleetCounts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fleetwatch_fleet_components",
			Help: "Number of components per overall health class",
		},
		[]string{"class"},
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleetwatch_websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)
)

type Collector struct{}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) RecordTick(evaluator string, duration time.Duration) {
	TickDuration.WithLabelValues(evaluator).Observe(duration.Seconds())
}

func (c *Collector) RecordHeartbeat(component string) {
	HeartbeatsReceived.WithLabelValues(component).Inc()
}

// UpdateFleet refreshes the per-component and per-class gauges from one
// aggregation snapshot.
func (c *Collector) UpdateFleet(fleet *database.FleetStatus) {
	for _, st := range fleet.Components {
		ComponentHealth.WithLabelValues(st.ComponentID).Set(float64(healthValue(st.Overall)))
	}

	FleetCounts.WithLabelValues(string(database.HealthHealthy)).Set(float64(fleet.Counts.Healthy))
	FleetCounts.WithLabelValues(string(database.HealthWarning)).Set(float64(fleet.Counts.Warning))
	FleetCounts.WithLabelValues(string(database.HealthCritical)).Set(float64(fleet.Counts.Critical))
	FleetCounts.WithLabelValues(string(database.HealthOffline)).Set(float64(fleet.Counts.Offline))
	FleetCounts.WithLabelValues(string(database.HealthUnknown)).Set(float64(fleet.Counts.Unknown))
}

func (c *Collector) RecordWebSocketConnection(delta int) {
	WebSocketConnections.Add(float64(delta))
}

func healthValue(class database.HealthClass) int {
	switch class {
	case database.HealthHealthy:
		return 0
	case database.HealthWarning:
		return 1
	case database.HealthCritical:
		return 2
	case database.HealthOffline:
		return 3
	default:
		return 4
	}
}
