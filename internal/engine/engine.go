package engine

import "context"

// Engine transcribes a snapshot of the session buffer. Each call is a fresh,
// buffer-relative segmentation; nothing is carried between calls.
type Engine interface {
	// Transcribe returns segments ordered by start time. Implementations may
	// take a long time and must not retain samples after returning. Cancelling
	// ctx aborts the call; the session passes a context detached from shutdown
	// so in-flight attempts complete, and only direct callers such as tools and
	// benchmarks rely on cancellation.
	Transcribe(ctx context.Context, samples []float32) ([]Segment, error)
	// Close releases underlying resources.
	Close() error
}

// Segment is a time-bounded span of recognised text. Start and End are
// seconds relative to the start of the transcribed buffer.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

//go:generate mockgen -destination=mocks/mock_engine.go -package=mocks github.com/nupi-ai/plugin-stt-stream-whisper/internal/engine Engine

// Kind names an engine implementation in configuration.
type Kind string

const (
	KindWhisper Kind = "whisper"
	KindOpenAI  Kind = "openai"
	KindStub    Kind = "stub"
)
