// Package session runs the processing loop: it drains the mailbox into the
// audio buffer, asks the scheduler whether to transcribe, calls the engine
// and turns the returned segments into events.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/audio"
	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/config"
	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/engine"
	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/events"
	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/finalize"
	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/ingest"
	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/telemetry"
	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/window"
)

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

// Options carries the collaborators of a Session. Engine, Mailbox and
// Emitter are required.
type Options struct {
	ID       string
	Engine   engine.Engine
	Mailbox  *ingest.Mailbox
	Emitter  *events.Emitter
	Recorder *telemetry.Recorder
	Logger   *slog.Logger
	Clock    Clock
}

// Session owns the buffer and window state of one audio stream. It is not
// safe for concurrent use; only Run (or Tick) touches its state.
type Session struct {
	id        string
	engine    engine.Engine
	mailbox   *ingest.Mailbox
	emitter   *events.Emitter
	recorder  *telemetry.Recorder
	log       *slog.Logger
	clock     Clock
	poll      time.Duration
	buffer    *audio.Buffer
	scheduler *window.Scheduler
	policy    finalize.Policy
}

// New returns a Session configured from cfg.
func New(cfg config.Config, opts Options) *Session {
	if opts.Engine == nil {
		panic("session: engine must not be nil")
	}
	if opts.Mailbox == nil {
		panic("session: mailbox must not be nil")
	}
	if opts.Emitter == nil {
		panic("session: emitter must not be nil")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = config.DefaultPollInterval
	}
	step := cfg.WindowStep
	if step <= 0 {
		step = window.DefaultStep
	}
	silence := cfg.SilenceTimeout
	if silence <= 0 {
		silence = window.DefaultSilenceTimeout
	}

	return &Session{
		id:        opts.ID,
		engine:    opts.Engine,
		mailbox:   opts.Mailbox,
		emitter:   opts.Emitter,
		recorder:  opts.Recorder,
		log:       opts.Logger.With("component", "session", "session_id", opts.ID),
		clock:     opts.Clock,
		poll:      poll,
		buffer:    audio.NewBuffer(audio.SampleRate),
		scheduler: window.NewScheduler(step, silence, opts.Clock()),
		policy:    finalize.NewPolicy(audio.SampleRate, cfg.MaxSpan),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Buffered returns the number of unfinalized samples.
func (s *Session) Buffered() int { return s.buffer.Len() }

// Run processes ticks until ctx is cancelled or the output stream fails.
// Each tick is triggered by new mailbox data or the poll interval. On
// cancellation the remaining chunks are drained and the unfinalized tail is
// dropped without a forced flush; Run then returns nil. An output failure
// is returned as an error wrapping events.ErrOutputClosed.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	s.log.Info("processing loop started", "poll", s.poll)
	for {
		select {
		case <-ctx.Done():
			s.shutdown(nil)
			return nil
		case <-s.mailbox.Notify():
		case <-ticker.C:
		}

		if err := s.Tick(ctx); err != nil {
			s.shutdown(err)
			return err
		}
	}
}

// Tick runs one processing step at the clock's current time.
func (s *Session) Tick(ctx context.Context) error {
	now := s.clock()
	s.drain(now)

	decision := s.scheduler.Decide(now, s.buffer.Len())
	if !decision.Transcribe {
		return nil
	}
	return s.transcribe(ctx, decision)
}

func (s *Session) drain(now time.Time) {
	chunks := s.mailbox.Drain()
	if len(chunks) == 0 {
		return
	}
	var size int
	for _, chunk := range chunks {
		s.buffer.AppendPCM16(chunk)
		s.scheduler.NoteAudio(now)
		size += len(chunk)
	}
	s.recorder.RecordChunks(len(chunks), size)
}

func (s *Session) transcribe(ctx context.Context, decision window.Decision) error {
	// In-flight inference is allowed to complete after cancellation.
	callCtx := context.WithoutCancel(ctx)

	started := time.Now()
	segments, err := s.engine.Transcribe(callCtx, s.buffer.Samples())
	took := time.Since(started)
	s.recorder.RecordAttempt(decision.Reason.String(), decision.Forced, took, err)
	if err != nil {
		s.scheduler.NoteFailedAttempt(decision)
		s.log.Warn("transcription failed; will retry",
			"error", err,
			"forced", decision.Forced,
			"buffer_seconds", s.buffer.Seconds(),
		)
		return nil
	}

	outcome := s.policy.Plan(segments, decision.Forced, s.buffer.Len())
	for _, final := range outcome.Finals {
		if err := s.emitter.Emit(events.Final(final.Text, final.Start, final.End)); err != nil {
			return err
		}
	}

	removed := finalize.Apply(outcome, s.buffer)
	s.recorder.RecordTrim(removed, s.buffer.Duration())

	if outcome.HasPartial {
		if err := s.emitter.Emit(events.Partial(outcome.Partial)); err != nil {
			return err
		}
	}

	s.log.Debug("transcription applied",
		"reason", decision.Reason.String(),
		"segments", len(segments),
		"finals", len(outcome.Finals),
		"partial", outcome.HasPartial,
		"trimmed", removed,
		"buffer_seconds", s.buffer.Seconds(),
		"inference_ms", took.Milliseconds(),
	)
	return nil
}

func (s *Session) shutdown(err error) {
	if err == nil {
		s.drain(s.clock())
	}
	dropped := s.buffer.Len()
	if dropped > 0 {
		s.log.Info("dropping unfinalized audio on shutdown",
			"samples", dropped,
			"seconds", s.buffer.Seconds(),
		)
	}
	if errors.Is(err, events.ErrOutputClosed) {
		s.log.Warn("output stream closed; stopping")
	}
	s.recorder.Finish(dropped, err)
}
