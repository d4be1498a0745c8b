package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// WorkerRestarts counts every Rotate/Resample across all workers,
	// the direct analogue of the teacher stabilizer's restart counter.
	WorkerRestarts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "latexrun_worker_restarts_total",
		Help: "Total number of worker rotate/resample events",
	})

	// PoolAvailable reports how many workers currently sit in the pool
	// (as opposed to being held by an in-flight conversion task).
	PoolAvailable = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "latexrun_pool_available",
		Help: "Number of workers currently queued in the pool",
	})

	// BatchSize reports the size of the batch currently in flight.
	BatchSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "latexrun_batch_size",
		Help: "Size of the batch currently being dispatched",
	})

	// ConversionsTotal counts conversions by final status code.
	ConversionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "latexrun_conversions_total",
		Help: "Total number of conversions by status code",
	}, []string{"status_code"})

	// ConversionDuration tracks per-conversion latency by status code.
	ConversionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "latexrun_conversion_duration_seconds",
		Help:    "Conversion duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"status_code"})
)

// Registry is a dedicated Prometheus registry so tests can register and
// discard collectors without clobbering the global default registry.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		WorkerRestarts,
		PoolAvailable,
		BatchSize,
		ConversionsTotal,
		ConversionDuration,
	)
}
