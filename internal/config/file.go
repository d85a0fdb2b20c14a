package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// payload mirrors Config for the YAML file and the JSON env payload. Unset
// fields leave the current value untouched.
type payload struct {
	Engine         string   `yaml:"engine" json:"engine"`
	UseStubEngine  *bool    `yaml:"use_stub_engine" json:"use_stub_engine"`
	ModelVariant   string   `yaml:"model_variant" json:"model_variant"`
	ModelPath      string   `yaml:"model_path" json:"model_path"`
	DataDir        string   `yaml:"data_dir" json:"data_dir"`
	Language       string   `yaml:"language" json:"language"`
	LogLevel       string   `yaml:"log_level" json:"log_level"`
	LogFormat      string   `yaml:"log_format" json:"log_format"`
	WindowStep     string   `yaml:"window_step" json:"window_step"`
	SilenceTimeout string   `yaml:"silence_timeout" json:"silence_timeout"`
	MaxSpan        string   `yaml:"max_span" json:"max_span"`
	PollInterval   string   `yaml:"poll_interval" json:"poll_interval"`
	ChunkSize      int      `yaml:"chunk_size" json:"chunk_size"`
	UseGPU         *bool    `yaml:"use_gpu" json:"use_gpu"`
	FlashAttention *bool    `yaml:"flash_attention" json:"flash_attention"`
	Threads        *int     `yaml:"threads" json:"threads"`
	BeamSize       *int     `yaml:"beam_size" json:"beam_size"`
	OpenAIAPIKey   string   `yaml:"openai_api_key" json:"openai_api_key"`
	OpenAIBaseURL  string   `yaml:"openai_base_url" json:"openai_base_url"`
	OpenAIModel    string   `yaml:"openai_model" json:"openai_model"`
	HealthAddr     string   `yaml:"health_addr" json:"health_addr"`
	MonitorAddr    string   `yaml:"monitor_addr" json:"monitor_addr"`
	MonitorOrigins []string `yaml:"monitor_origins" json:"monitor_origins"`
}

func applyFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	var p payload
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := p.apply(cfg); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	return nil
}

func applyJSON(raw string, cfg *Config) error {
	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return fmt.Errorf("config: decode NUPI_ADAPTER_CONFIG: %w", err)
	}
	if err := p.apply(cfg); err != nil {
		return fmt.Errorf("config: NUPI_ADAPTER_CONFIG: %w", err)
	}
	return nil
}

func (p payload) apply(cfg *Config) error {
	setString(&cfg.Engine, p.Engine)
	setString(&cfg.ModelVariant, p.ModelVariant)
	setString(&cfg.ModelPath, p.ModelPath)
	setString(&cfg.DataDir, p.DataDir)
	setString(&cfg.Language, p.Language)
	setString(&cfg.LogLevel, p.LogLevel)
	setString(&cfg.LogFormat, p.LogFormat)
	setString(&cfg.OpenAIAPIKey, p.OpenAIAPIKey)
	setString(&cfg.OpenAIBaseURL, p.OpenAIBaseURL)
	setString(&cfg.OpenAIModel, p.OpenAIModel)
	setString(&cfg.HealthAddr, p.HealthAddr)
	setString(&cfg.MonitorAddr, p.MonitorAddr)

	if len(p.MonitorOrigins) > 0 {
		cfg.MonitorOrigins = p.MonitorOrigins
	}
	if p.UseStubEngine != nil {
		cfg.UseStubEngine = *p.UseStubEngine
	}
	if p.ChunkSize != 0 {
		cfg.ChunkSize = p.ChunkSize
	}
	if p.UseGPU != nil {
		cfg.UseGPU = p.UseGPU
	}
	if p.FlashAttention != nil {
		cfg.FlashAttention = p.FlashAttention
	}
	if p.Threads != nil {
		cfg.Threads = autoInt(*p.Threads)
	}
	if p.BeamSize != nil {
		cfg.BeamSize = p.BeamSize
	}

	durations := []struct {
		key    string
		raw    string
		target *time.Duration
	}{
		{"window_step", p.WindowStep, &cfg.WindowStep},
		{"silence_timeout", p.SilenceTimeout, &cfg.SilenceTimeout},
		{"max_span", p.MaxSpan, &cfg.MaxSpan},
		{"poll_interval", p.PollInterval, &cfg.PollInterval},
	}
	for _, d := range durations {
		if strings.TrimSpace(d.raw) == "" {
			continue
		}
		value, err := parseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.target = value
	}
	return nil
}

// parseDuration accepts Go duration strings ("200ms") and bare seconds ("0.2").
func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(seconds * float64(time.Second)), nil
	}
	return time.ParseDuration(raw)
}

func setString(target *string, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*target = trimmed
	}
}

// autoInt maps zero to nil so the engine picks its own default.
func autoInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
