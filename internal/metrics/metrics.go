package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the Prometheus metrics for a recording daemon.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// chunk processing
	ChunksSubmitted prometheus.Counter
	ChunkOutcomes   *prometheus.CounterVec
	InFlight        prometheus.Gauge

	// transcription
	TranscriptionDuration prometheus.Histogram
	TranscriptionFailures prometheus.Counter

	// summarization
	MergeDuration prometheus.Histogram
	MergeFailures *prometheus.CounterVec

	// retry queue
	QueueLength     prometheus.Gauge
	QueueDrained    prometheus.Counter
	PersistFailures *prometheus.CounterVec
}

// New creates all metrics on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ChunksSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "hyprminutes_chunks_submitted_total",
			Help: "Total number of audio chunks handed to the processor",
		}),
		ChunkOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hyprminutes_chunk_outcomes_total",
			Help: "Terminal chunk outcomes by kind",
		}, []string{"outcome"}),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hyprminutes_chunks_in_flight",
			Help: "Chunks currently being transcribed or merged",
		}),

		TranscriptionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hyprminutes_transcription_duration_seconds",
			Help:    "Time spent transcribing one chunk",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4 minutes
		}),
		TranscriptionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "hyprminutes_transcription_failures_total",
			Help: "Transcription calls that returned an error",
		}),

		MergeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "hyprminutes_merge_duration_seconds",
			Help:    "Time spent in one summarization call",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		MergeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hyprminutes_merge_failures_total",
			Help: "Failed merges by classified reason",
		}, []string{"reason"}),

		QueueLength: factory.NewGauge(prometheus.GaugeOpts{
			Name: "hyprminutes_queue_length",
			Help: "Transcripts waiting in the retry queue",
		}),
		QueueDrained: factory.NewCounter(prometheus.CounterOpts{
			Name: "hyprminutes_queue_drained_items_total",
			Help: "Queued transcripts merged by a drain",
		}),
		PersistFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hyprminutes_persist_failures_total",
			Help: "Failed writes of session artifacts",
		}, []string{"artifact"}),
	}
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ChunkSubmitted() {
	if m == nil {
		return
	}
	m.ChunksSubmitted.Inc()
	m.InFlight.Inc()
}

// ChunkFinished records the terminal outcome of a chunk
func (m *Metrics) ChunkFinished(outcome string) {
	if m == nil {
		return
	}
	m.InFlight.Dec()
	m.ChunkOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveTranscription(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.TranscriptionDuration.Observe(d.Seconds())
	if err != nil {
		m.TranscriptionFailures.Inc()
	}
}

// ObserveMerge records one summarization call; reason is empty on success
func (m *Metrics) ObserveMerge(d time.Duration, reason string) {
	if m == nil {
		return
	}
	m.MergeDuration.Observe(d.Seconds())
	if reason != "" {
		m.MergeFailures.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) SetQueueLength(n int) {
	if m == nil {
		return
	}
	m.QueueLength.Set(float64(n))
}

func (m *Metrics) Drained(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.QueueDrained.Add(float64(n))
}

// PersistFailed counts a failed write; artifact is "queue", "minutes", "transcript" or "meta"
func (m *Metrics) PersistFailed(artifact string) {
	if m == nil {
		return
	}
	m.PersistFailures.WithLabelValues(artifact).Inc()
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Metrics: serving on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
