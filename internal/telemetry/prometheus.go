package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stt_stream"

// Metrics holds the Prometheus collectors mirrored from the Recorder.
type Metrics struct {
	ChunksReceived prometheus.Counter
	BytesReceived  prometheus.Counter
	Attempts       *prometheus.CounterVec
	EngineFailures prometheus.Counter
	EngineDuration prometheus.Histogram
	Events         *prometheus.CounterVec
	TrimmedSamples prometheus.Counter
	DroppedSamples prometheus.Counter
	BufferSeconds  prometheus.Gauge
	MailboxBacklog prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChunksReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_received_total",
			Help:      "Total number of raw input chunks consumed",
		}),
		BytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_received_total",
			Help:      "Total number of raw PCM bytes consumed",
		}),
		Attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcription_attempts_total",
			Help:      "Total number of transcription attempts by trigger",
		}, []string{"reason"}),
		EngineFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_failures_total",
			Help:      "Total number of failed engine calls",
		}),
		EngineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_duration_seconds",
			Help:      "Duration of engine calls",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}),
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_emitted_total",
			Help:      "Total number of events written to the output stream",
		}, []string{"type"}),
		TrimmedSamples: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trimmed_samples_total",
			Help:      "Total number of samples removed from the buffer after finalization",
		}),
		DroppedSamples: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_samples_total",
			Help:      "Samples left unfinalized at shutdown",
		}),
		BufferSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_seconds",
			Help:      "Current length of the unfinalized audio buffer",
		}),
		MailboxBacklog: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mailbox_backlog_chunks",
			Help:      "Chunks drained from the mailbox in the last tick",
		}),
	}
}
