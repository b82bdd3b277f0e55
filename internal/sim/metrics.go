package sim

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rewind_steps_total",
		Help: "Total number of simulation steps executed",
	})

	anomaliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rewind_anomalies_total",
		Help: "Time anomalies raised, by rule",
	}, []string{"rule"})

	timeTravelsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rewind_time_travels_total",
		Help: "Completed time-travel jumps",
	})

	rewindDistance = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rewind_distance_steps",
		Help:    "Number of steps rewound per time travel",
		Buckets: prometheus.ExponentialBuckets(8, 2, 8),
	})

	timelineDeltas = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rewind_timeline_deltas",
		Help: "Stored timeline deltas across all entities of the last stepped simulation",
	})

	referencedEntities = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rewind_referenced_entities",
		Help: "Entities with a live instance in the last stepped simulation",
	})
)
