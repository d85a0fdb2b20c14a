// Package window decides, once per processing tick, whether the buffered
// audio should be sent to the engine.
package window

import "time"

const (
	DefaultStep           = 200 * time.Millisecond
	DefaultSilenceTimeout = 2 * time.Second
)

// Reason describes why a tick did or did not trigger transcription.
type Reason int

const (
	ReasonEmpty Reason = iota
	ReasonStep
	ReasonSilence
	ReasonWaiting
)

func (r Reason) String() string {
	switch r {
	case ReasonEmpty:
		return "empty"
	case ReasonStep:
		return "step"
	case ReasonSilence:
		return "silence"
	case ReasonWaiting:
		return "waiting"
	default:
		return "unknown"
	}
}

// Decision is the outcome of a single tick.
type Decision struct {
	Transcribe bool
	// Forced asks the finaliser to emit and discard everything.
	Forced bool
	Reason Reason
}

// State is the scheduler's view of the session timeline.
type State struct {
	LastAttempt time.Time
	LastAudio   time.Time
	HasNewAudio bool
}

// Scheduler applies the window-step and silence-timeout rules.
type Scheduler struct {
	step    time.Duration
	silence time.Duration
	state   State
	// forcedFailed is set when the last forced attempt failed in the engine.
	forcedFailed bool
}

// NewScheduler returns a Scheduler whose timeline starts at now.
func NewScheduler(step, silenceTimeout time.Duration, now time.Time) *Scheduler {
	if step <= 0 {
		step = DefaultStep
	}
	if silenceTimeout <= 0 {
		silenceTimeout = DefaultSilenceTimeout
	}
	return &Scheduler{
		step:    step,
		silence: silenceTimeout,
		state: State{
			LastAttempt: now,
			LastAudio:   now,
		},
	}
}

// NoteAudio records that a chunk was consumed at now.
func (s *Scheduler) NoteAudio(now time.Time) {
	s.state.HasNewAudio = true
	s.state.LastAudio = now
}

// NoteFailedAttempt records that the engine call for d failed. After a
// failed forced attempt the silence rule waits one window step before
// retrying instead of firing on every tick.
func (s *Scheduler) NoteFailedAttempt(d Decision) {
	s.forcedFailed = d.Forced
}

// Decide evaluates the rules in order. Once it decides to transcribe it
// resets the attempt timestamp and the new-audio flag, whatever the outcome
// of the engine call.
func (s *Scheduler) Decide(now time.Time, bufferLen int) Decision {
	if bufferLen == 0 {
		return Decision{Reason: ReasonEmpty}
	}

	sinceAttempt := now.Sub(s.state.LastAttempt)
	var d Decision
	switch {
	case s.state.HasNewAudio && sinceAttempt > s.step:
		d = Decision{Transcribe: true, Reason: ReasonStep}
	case now.Sub(s.state.LastAudio) > s.silence && (!s.forcedFailed || sinceAttempt > s.step):
		d = Decision{Transcribe: true, Forced: true, Reason: ReasonSilence}
	default:
		return Decision{Reason: ReasonWaiting}
	}

	s.state.LastAttempt = now
	s.state.HasNewAudio = false
	s.forcedFailed = false
	return d
}

// State returns a copy of the current timeline.
func (s *Scheduler) State() State {
	return s.state
}
