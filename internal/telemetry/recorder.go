package telemetry

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Recorder tracks session-level telemetry. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	log     *slog.Logger
	metrics *Metrics

	sessionID string
	started   time.Time

	chunks         atomic.Uint64
	bytes          atomic.Uint64
	attempts       atomic.Uint64
	forcedAttempts atomic.Uint64
	engineFailures atomic.Uint64
	engineNanos    atomic.Int64
	partials       atomic.Uint64
	finals         atomic.Uint64
	trimmedSamples atomic.Uint64
	droppedSamples atomic.Uint64
	finished       atomic.Bool
}

// Snapshot captures cumulative metrics recorded so far.
type Snapshot struct {
	SessionID      string
	Chunks         uint64
	Bytes          uint64
	Attempts       uint64
	ForcedAttempts uint64
	EngineFailures uint64
	EngineTime     time.Duration
	Partials       uint64
	Finals         uint64
	TrimmedSamples uint64
	DroppedSamples uint64
}

// NewRecorder constructs a Recorder for one session. metrics may be nil.
func NewRecorder(logger *slog.Logger, sessionID string, metrics *Metrics) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		log:       logger.With("component", "telemetry", "session_id", sessionID),
		metrics:   metrics,
		sessionID: sessionID,
		started:   time.Now(),
	}
}

// Snapshot returns an immutable view of the recorder totals.
func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	return Snapshot{
		SessionID:      r.sessionID,
		Chunks:         r.chunks.Load(),
		Bytes:          r.bytes.Load(),
		Attempts:       r.attempts.Load(),
		ForcedAttempts: r.forcedAttempts.Load(),
		EngineFailures: r.engineFailures.Load(),
		EngineTime:     time.Duration(r.engineNanos.Load()),
		Partials:       r.partials.Load(),
		Finals:         r.finals.Load(),
		TrimmedSamples: r.trimmedSamples.Load(),
		DroppedSamples: r.droppedSamples.Load(),
	}
}

// RecordChunks updates counters for chunks drained from the mailbox.
func (r *Recorder) RecordChunks(chunks, size int) {
	if r == nil || chunks <= 0 {
		return
	}
	r.chunks.Add(uint64(chunks))
	r.bytes.Add(uint64(size))
	if r.metrics != nil {
		r.metrics.ChunksReceived.Add(float64(chunks))
		r.metrics.BytesReceived.Add(float64(size))
		r.metrics.MailboxBacklog.Set(float64(chunks))
	}
}

// RecordAttempt stores the result of one engine call.
func (r *Recorder) RecordAttempt(reason string, forced bool, took time.Duration, err error) {
	if r == nil {
		return
	}
	r.attempts.Add(1)
	if forced {
		r.forcedAttempts.Add(1)
	}
	r.engineNanos.Add(int64(took))
	if err != nil {
		r.engineFailures.Add(1)
	}
	if r.metrics != nil {
		r.metrics.Attempts.WithLabelValues(reason).Inc()
		r.metrics.EngineDuration.Observe(took.Seconds())
		if err != nil {
			r.metrics.EngineFailures.Inc()
		}
	}

	r.log.Debug("transcription attempt",
		"reason", reason,
		"forced", forced,
		"duration_ms", took.Milliseconds(),
		"failed", err != nil,
	)
}

// RecordEvent counts an emitted event by its type name.
func (r *Recorder) RecordEvent(kind string) {
	if r == nil {
		return
	}
	switch kind {
	case "partial":
		r.partials.Add(1)
	case "final":
		r.finals.Add(1)
	}
	if r.metrics != nil {
		r.metrics.Events.WithLabelValues(kind).Inc()
	}
}

// RecordTrim counts samples removed from the buffer and its new length.
func (r *Recorder) RecordTrim(removed int, remaining time.Duration) {
	if r == nil {
		return
	}
	if removed > 0 {
		r.trimmedSamples.Add(uint64(removed))
	}
	if r.metrics != nil {
		if removed > 0 {
			r.metrics.TrimmedSamples.Add(float64(removed))
		}
		r.metrics.BufferSeconds.Set(remaining.Seconds())
	}
}

// Finish records the unfinalized tail and logs a summary. Only the first call
// has an effect.
func (r *Recorder) Finish(dropped int, err error) {
	if r == nil {
		return
	}
	if !r.finished.CompareAndSwap(false, true) {
		return
	}
	if dropped > 0 {
		r.droppedSamples.Add(uint64(dropped))
		if r.metrics != nil {
			r.metrics.DroppedSamples.Add(float64(dropped))
		}
	}

	snap := r.Snapshot()
	args := []any{
		"duration_ms", time.Since(r.started).Milliseconds(),
		"chunks", snap.Chunks,
		"bytes", snap.Bytes,
		"attempts", snap.Attempts,
		"forced_attempts", snap.ForcedAttempts,
		"engine_failures", snap.EngineFailures,
		"engine_ms", snap.EngineTime.Milliseconds(),
		"partials", snap.Partials,
		"finals", snap.Finals,
		"trimmed_samples", snap.TrimmedSamples,
		"dropped_samples", snap.DroppedSamples,
	}

	if err != nil {
		r.log.Error("session completed with error", append(args, "error", err)...)
		return
	}
	r.log.Info("session completed", args...)
}
