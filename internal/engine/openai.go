package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/audio"
)

// ErrAPIKeyRequired is returned when the remote engine has no credentials.
var ErrAPIKeyRequired = errors.New("engine: openai api key required")

// transcriber is the subset of the go-openai client used by OpenAIEngine.
type transcriber interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// OpenAIOptions configures the remote transcription engine.
type OpenAIOptions struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
}

// OpenAIEngine sends each buffer snapshot as a WAV upload to an
// OpenAI-compatible /audio/transcriptions endpoint and maps the verbose_json
// segments.
type OpenAIEngine struct {
	client   transcriber
	model    string
	language string
	log      *slog.Logger
}

// NewOpenAIEngine builds a remote engine. BaseURL may point at any
// OpenAI-compatible server.
func NewOpenAIEngine(opts OpenAIOptions, logger *slog.Logger) (*OpenAIEngine, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrAPIKeyRequired
	}
	clientCfg := openai.DefaultConfig(opts.APIKey)
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		clientCfg.BaseURL = strings.TrimRight(base, "/")
	}
	return newOpenAIEngine(openai.NewClientWithConfig(clientCfg), opts, logger), nil
}

func newOpenAIEngine(client transcriber, opts OpenAIOptions, logger *slog.Logger) *OpenAIEngine {
	if logger == nil {
		logger = slog.Default()
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = openai.Whisper1
	}
	language := normaliseLanguage(opts.Language, "")
	if strings.EqualFold(language, "auto") {
		language = ""
	}
	return &OpenAIEngine{
		client:   client,
		model:    model,
		language: language,
		log:      logger.With("component", "engine.openai", "model", model),
	}
}

// Transcribe implements the Engine interface.
func (e *OpenAIEngine) Transcribe(ctx context.Context, samples []float32) ([]Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, nil
	}

	wav, err := audio.EncodeWAV(samples, audio.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("openai: encode wav: %w", err)
	}

	resp, err := e.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:                  e.model,
		FilePath:               "buffer.wav",
		Reader:                 bytes.NewReader(wav),
		Language:               e.language,
		Format:                 openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{openai.TranscriptionTimestampGranularitySegment},
	})
	if err != nil {
		return nil, fmt.Errorf("openai: transcription: %w", err)
	}

	segments := make([]Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segments = append(segments, Segment{Start: s.Start, End: s.End, Text: s.Text})
	}
	total := float64(len(samples)) / float64(audio.SampleRate)
	if len(segments) == 0 && !isBlank(resp.Text) {
		// Servers without segment support still return the full text.
		segments = append(segments, Segment{Start: 0, End: total, Text: resp.Text})
	}

	out := orderSegments(segments, total)
	e.log.Debug("remote transcript", "samples", len(samples), "segments", len(out), "language", resp.Language)
	return out, nil
}

// Close implements the Engine interface.
func (e *OpenAIEngine) Close() error {
	return nil
}
