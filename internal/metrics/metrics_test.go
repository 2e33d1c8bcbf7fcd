package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ChunkSubmitted()
	m.ChunkFinished("merged")
	m.ObserveTranscription(time.Second, errors.New("x"))
	m.ObserveMerge(time.Second, "rate limited")
	m.SetQueueLength(3)
	m.Drained(2)
	m.PersistFailed("queue")
	if m.Registry() != nil {
		t.Error("nil metrics should have nil registry")
	}
}

func TestCounters(t *testing.T) {
	m := New()

	m.ChunkSubmitted()
	m.ChunkSubmitted()
	m.ChunkFinished("merged")

	if got := testutil.ToFloat64(m.ChunksSubmitted); got != 2 {
		t.Errorf("ChunksSubmitted = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.InFlight); got != 1 {
		t.Errorf("InFlight = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ChunkOutcomes.WithLabelValues("merged")); got != 1 {
		t.Errorf("merged outcomes = %v, want 1", got)
	}

	m.ObserveMerge(time.Second, "rate limited")
	m.ObserveMerge(time.Second, "")
	if got := testutil.ToFloat64(m.MergeFailures.WithLabelValues("rate limited")); got != 1 {
		t.Errorf("merge failures = %v, want 1", got)
	}

	m.SetQueueLength(4)
	if got := testutil.ToFloat64(m.QueueLength); got != 4 {
		t.Errorf("QueueLength = %v, want 4", got)
	}

	m.Drained(0)
	m.Drained(3)
	if got := testutil.ToFloat64(m.QueueDrained); got != 3 {
		t.Errorf("QueueDrained = %v, want 3", got)
	}
}

func TestSeparateRegistries(t *testing.T) {
	// two instances must not collide on registration
	a := New()
	b := New()
	a.ChunkSubmitted()
	if got := testutil.ToFloat64(b.ChunksSubmitted); got != 0 {
		t.Errorf("instances share state: %v", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.SetQueueLength(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "hyprminutes_queue_length 2") {
		t.Errorf("body missing queue gauge:\n%s", rec.Body.String())
	}
}
