package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "quickbite_geo_active_sessions",
		Help: "Number of currently connected WebSocket sessions.",
	})

	eventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quickbite_geo_events_published_total",
		Help: "Total events delivered to topic subscribers.",
	})

	snapshotTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quickbite_geo_snapshot_ticks_total",
		Help: "Fleet snapshot broadcast ticks by outcome.",
	}, []string{"outcome"})
)
