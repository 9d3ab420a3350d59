package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SourceCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomaudit_source_calls_total",
			Help: "Total calls to remote input sources",
		},
		[]string{"endpoint", "status"},
	)

	SourceLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roomaudit_source_latency_seconds",
			Help:    "Remote input source call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ReadingsLoaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomaudit_readings_loaded_total",
			Help: "Total readings loaded from input sources",
		},
	)

	ReadingsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomaudit_readings_rejected_total",
			Help: "Total input rows that could not be grouped by room and date",
		},
	)

	QualityFlags = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomaudit_reading_quality_flags_total",
			Help: "Total readings with physically implausible values",
		},
		[]string{"flag"},
	)

	GroupsSummarized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomaudit_groups_summarized_total",
			Help: "Total room-days summarized",
		},
		[]string{"room_type"},
	)

	GroupsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomaudit_groups_skipped_total",
			Help: "Total room-days skipped",
		},
		[]string{"reason"},
	)

	UnrecognizedRoomTypes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomaudit_unrecognized_room_types_total",
			Help: "Total room-days evaluated with the default room type entry",
		},
	)

	FlagsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomaudit_flags_raised_total",
			Help: "Total flags raised by label",
		},
		[]string{"flag"},
	)

	DroppedReadings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomaudit_dropped_readings_total",
			Help: "Total readings whose energy delta was rejected",
		},
	)

	AggregateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roomaudit_aggregate_duration_seconds",
			Help:    "Time to summarize a batch in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	LastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roomaudit_last_run_timestamp_seconds",
			Help: "Unix time of the last completed batch",
		},
	)
)

// WriteTextfile writes the default registry in the text exposition format,
// for node_exporter's textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
