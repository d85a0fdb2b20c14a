package telemetry

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorderSnapshot(t *testing.T) {
	recorder := NewRecorder(discardLogger(), "session-1", nil)
	if snapshot := recorder.Snapshot(); snapshot.Attempts != 0 || snapshot.SessionID != "session-1" {
		t.Fatalf("unexpected initial snapshot %+v", snapshot)
	}

	recorder.RecordChunks(2, 8192)
	recorder.RecordAttempt("step", false, 40*time.Millisecond, nil)
	recorder.RecordEvent("partial")
	recorder.RecordAttempt("silence", true, 60*time.Millisecond, errors.New("boom"))
	recorder.RecordAttempt("silence", true, 10*time.Millisecond, nil)
	recorder.RecordEvent("final")
	recorder.RecordEvent("final")
	recorder.RecordEvent("ready")
	recorder.RecordTrim(4096, time.Second)
	recorder.RecordTrim(0, time.Second)
	recorder.Finish(100, nil)

	snapshot := recorder.Snapshot()
	if snapshot.Chunks != 2 || snapshot.Bytes != 8192 {
		t.Fatalf("unexpected chunk counters: %+v", snapshot)
	}
	if snapshot.Attempts != 3 || snapshot.ForcedAttempts != 2 || snapshot.EngineFailures != 1 {
		t.Fatalf("unexpected attempt counters: %+v", snapshot)
	}
	if snapshot.EngineTime != 110*time.Millisecond {
		t.Fatalf("unexpected engine time: %s", snapshot.EngineTime)
	}
	if snapshot.Partials != 1 || snapshot.Finals != 2 {
		t.Fatalf("unexpected event counters: %+v", snapshot)
	}
	if snapshot.TrimmedSamples != 4096 || snapshot.DroppedSamples != 100 {
		t.Fatalf("unexpected sample counters: %+v", snapshot)
	}

	recorder.Finish(50, nil)
	if got := recorder.Snapshot().DroppedSamples; got != 100 {
		t.Fatalf("second Finish changed totals: %d", got)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var recorder *Recorder
	recorder.RecordChunks(1, 2)
	recorder.RecordAttempt("step", false, time.Millisecond, nil)
	recorder.RecordEvent("final")
	recorder.RecordTrim(1, 0)
	recorder.Finish(1, errors.New("x"))
	if snapshot := recorder.Snapshot(); snapshot != (Snapshot{}) {
		t.Fatalf("expected zero snapshot, got %+v", snapshot)
	}
}

func TestRecorderMirrorsPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder := NewRecorder(discardLogger(), "session-2", NewMetrics(reg))

	recorder.RecordChunks(3, 300)
	recorder.RecordAttempt("step", false, 20*time.Millisecond, nil)
	recorder.RecordAttempt("silence", true, 20*time.Millisecond, errors.New("boom"))
	recorder.RecordEvent("final")
	recorder.RecordTrim(160, 500*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	values := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			for _, label := range m.GetLabel() {
				name += "{" + label.GetValue() + "}"
			}
			switch {
			case m.GetCounter() != nil:
				values[name] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[name] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				values[name] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}

	want := map[string]float64{
		"stt_stream_chunks_received_total":                 3,
		"stt_stream_bytes_received_total":                  300,
		"stt_stream_transcription_attempts_total{step}":    1,
		"stt_stream_transcription_attempts_total{silence}": 1,
		"stt_stream_engine_failures_total":                 1,
		"stt_stream_engine_duration_seconds":               2,
		"stt_stream_events_emitted_total{final}":           1,
		"stt_stream_trimmed_samples_total":                 160,
		"stt_stream_buffer_seconds":                        0.5,
	}
	for name, expected := range want {
		if got, ok := values[name]; !ok || got != expected {
			t.Fatalf("metric %s: want %v, got %v (present=%v)", name, expected, got, ok)
		}
	}
}
