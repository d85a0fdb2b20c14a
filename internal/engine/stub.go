package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/adapterinfo"
	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/audio"
)

// DefaultStubSpan is the fixed segment length produced by StubEngine.
const DefaultStubSpan = 1.0

// StubEngine produces deterministic segments without invoking Whisper: the
// buffer is cut into fixed-length spans, the last one possibly shorter.
type StubEngine struct {
	log          *slog.Logger
	modelVariant string
	sampleRate   int
	span         float64
	calls        int
}

// NewStubEngine returns an Engine that generates placeholder transcripts.
func NewStubEngine(logger *slog.Logger, modelVariant string) *StubEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &StubEngine{
		log: logger.With(
			"component", "engine.stub",
			"adapter", adapterinfo.Info.Slug,
			"model_variant", modelVariant,
		),
		modelVariant: modelVariant,
		sampleRate:   audio.SampleRate,
		span:         DefaultStubSpan,
	}
}

// WithSpan overrides the segment length in seconds.
func (e *StubEngine) WithSpan(seconds float64) *StubEngine {
	if seconds > 0 {
		e.span = seconds
	}
	return e
}

// Close implements the Engine interface.
func (e *StubEngine) Close() error {
	return nil
}

// Transcribe implements the Engine interface.
func (e *StubEngine) Transcribe(ctx context.Context, samples []float32) ([]Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, nil
	}
	e.calls++

	total := float64(len(samples)) / float64(e.sampleRate)
	var segments []Segment
	for start := 0.0; start < total; start += e.span {
		end := start + e.span
		if end > total {
			end = total
		}
		segments = append(segments, Segment{
			Start: start,
			End:   end,
			Text:  fmt.Sprintf(" [stub:%s] %.2f-%.2f ", e.modelVariant, start, end),
		})
	}
	e.log.Debug("stub transcript", "samples", len(samples), "segments", len(segments), "call", e.calls)
	return segments, nil
}
