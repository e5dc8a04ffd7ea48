package tracking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	updatesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quickbite_geo_updates_ingested_total",
		Help: "Driver location updates accepted and persisted.",
	})

	updatesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quickbite_geo_updates_dropped_total",
		Help: "Driver location updates dropped before persistence, by reason.",
	}, []string{"reason"})
)
