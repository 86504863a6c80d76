// Package metrics holds the Prometheus instruments of the presence engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_cycles_total",
			Help: "Engine cycles by result (ok, error, panic)",
		},
		[]string{"result"},
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "presence_cycle_duration_seconds",
			Help:    "Duration of one engine cycle",
			Buckets: prometheus.DefBuckets,
		},
	)

	EntityWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_entity_writes_total",
			Help: "Derived entity writes by result",
		},
		[]string{"result"},
	)

	EntityDeletes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_entity_deletes_total",
			Help: "Reconciler deletes of stale derived entities by result",
		},
		[]string{"result"},
	)

	ReadingsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_readings_skipped_total",
			Help: "Assigned sensor readings that produced no data this cycle",
		},
		[]string{"reason"}, // "fetch_error", "not_found", "unavailable"
	)

	PeopleWorking = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "presence_people_working",
			Help: "People classified as Working in the last cycle",
		},
	)

	ReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_daily_reports_total",
			Help: "Daily report generations by result",
		},
		[]string{"result"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "presence_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)
