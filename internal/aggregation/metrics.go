package aggregation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingest outcomes for the events counter.
const (
	outcomeAccepted     = "accepted"
	outcomeRejected     = "rejected"
	outcomeBackpressure = "backpressure"
	outcomeDisabled     = "disabled"
)

// Failure kinds for the flush failure counter.
const (
	failureTransient = "transient"
	failurePermanent = "permanent"
)

type engineMetrics struct {
	eventsTotal      *prometheus.CounterVec
	flushDuration    prometheus.Histogram
	flushedBuckets   prometheus.Counter
	documentsWritten prometheus.Counter
	flushFailures    *prometheus.CounterVec
	deadLettered     prometheus.Counter
	retentionDeleted prometheus.Counter
}

// newEngineMetrics registers the engine's collectors on reg. A nil reg
// creates unregistered collectors.
func newEngineMetrics(reg prometheus.Registerer, queueLen, deadLetters func() float64) *engineMetrics {
	factory := promauto.With(reg)

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "salesagg",
		Name:      "pending_buckets",
		Help:      "Bucket identities waiting in the pending update queue.",
	}, queueLen)
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "salesagg",
		Name:      "dead_letters",
		Help:      "Buckets parked after exhausting their retries.",
	}, deadLetters)

	return &engineMetrics{
		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salesagg",
			Name:      "events_total",
			Help:      "Sales events handed to the engine, by outcome.",
		}, []string{"outcome"}),
		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "salesagg",
			Name:      "flush_duration_seconds",
			Help:      "Wall time of one flush cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		flushedBuckets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "salesagg",
			Name:      "flushed_buckets_total",
			Help:      "Bucket identities completed by a flush.",
		}),
		documentsWritten: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "salesagg",
			Name:      "documents_written_total",
			Help:      "Aggregate documents upserted.",
		}),
		flushFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salesagg",
			Name:      "flush_failures_total",
			Help:      "Bucket flush failures, by kind.",
		}, []string{"kind"}),
		deadLettered: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "salesagg",
			Name:      "dead_lettered_total",
			Help:      "Buckets moved to the dead-letter list.",
		}),
		retentionDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "salesagg",
			Name:      "retention_deleted_total",
			Help:      "Aggregate documents removed by the retention sweep.",
		}),
	}
}
