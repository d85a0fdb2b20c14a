package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultEngine         = "whisper"
	DefaultModel          = "base.en"
	DefaultLanguage       = "en"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultDataDir        = "data"
	DefaultWindowStep     = 200 * time.Millisecond
	DefaultSilenceTimeout = 2 * time.Second
	DefaultMaxSpan        = 10 * time.Second
	DefaultPollInterval   = 10 * time.Millisecond
	DefaultChunkSize      = 4096
	DefaultBeamSize       = 1
	DefaultOpenAIModel    = "whisper-1"
)

// Config captures bootstrap configuration assembled from an optional YAML
// file, the JSON payload in NUPI_ADAPTER_CONFIG and environment variables.
type Config struct {
	Engine        string
	UseStubEngine bool
	ModelVariant  string
	ModelPath     string
	DataDir       string
	Language      string
	LogLevel      string
	LogFormat     string

	WindowStep     time.Duration
	SilenceTimeout time.Duration
	MaxSpan        time.Duration
	PollInterval   time.Duration
	ChunkSize      int

	UseGPU         *bool
	FlashAttention *bool
	Threads        *int
	BeamSize       *int

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// HealthAddr enables the gRPC health service when non-empty.
	HealthAddr string
	// MonitorAddr enables the HTTP metrics and event tail when non-empty.
	MonitorAddr string
	// MonitorOrigins lists extra browser origins allowed on /events.
	MonitorOrigins []string
}

// Validate applies defaults, checks required fields, and rejects out-of-range
// values.
func (c *Config) Validate() error {
	if c.Engine == "" {
		c.Engine = DefaultEngine
	}
	c.Engine = strings.ToLower(strings.TrimSpace(c.Engine))
	switch c.Engine {
	case "whisper", "openai", "stub":
	default:
		return fmt.Errorf("config: unknown engine %q", c.Engine)
	}
	if c.ModelVariant == "" {
		c.ModelVariant = DefaultModel
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("config: log_format must be text or json, got %q", c.LogFormat)
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.WindowStep == 0 {
		c.WindowStep = DefaultWindowStep
	}
	if c.SilenceTimeout == 0 {
		c.SilenceTimeout = DefaultSilenceTimeout
	}
	if c.MaxSpan == 0 {
		c.MaxSpan = DefaultMaxSpan
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.OpenAIModel == "" {
		c.OpenAIModel = DefaultOpenAIModel
	}
	if c.BeamSize == nil {
		beam := DefaultBeamSize
		c.BeamSize = &beam
	}

	if c.WindowStep < 0 {
		return fmt.Errorf("config: window_step must be positive, got %s", c.WindowStep)
	}
	if c.SilenceTimeout <= c.WindowStep {
		return fmt.Errorf("config: silence_timeout (%s) must be greater than window_step (%s)", c.SilenceTimeout, c.WindowStep)
	}
	if c.MaxSpan < 0 {
		return fmt.Errorf("config: max_span must be positive, got %s", c.MaxSpan)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("config: poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.ChunkSize < 2 {
		return fmt.Errorf("config: chunk_size must be >= 2, got %d", c.ChunkSize)
	}
	if c.Threads != nil && *c.Threads < 0 {
		return fmt.Errorf("config: threads must be >= 0, got %d", *c.Threads)
	}
	if c.BeamSize != nil && *c.BeamSize < 1 {
		return fmt.Errorf("config: beam_size must be >= 1, got %d", *c.BeamSize)
	}
	if c.Engine == "openai" && !c.UseStubEngine && strings.TrimSpace(c.OpenAIAPIKey) == "" {
		return fmt.Errorf("config: openai engine requires an API key")
	}
	return nil
}

// EngineKind resolves the engine to instantiate, honouring UseStubEngine.
func (c Config) EngineKind() string {
	if c.UseStubEngine {
		return "stub"
	}
	return c.Engine
}
