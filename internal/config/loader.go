package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Loader loads configuration from environment variables. Tests can override
// Lookup to inject deterministic maps.
type Loader struct {
	Lookup func(string) (string, bool)
}

// Load retrieves the adapter configuration and validates it. Sources are
// applied in order: YAML file, JSON payload, individual variables. Values
// from NUPI_ADAPTER_ENV_FILE fill in variables missing from the environment.
func (l Loader) Load() (Config, error) {
	lookup := l.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if path, ok := nonEmpty(lookup, "NUPI_ADAPTER_ENV_FILE"); ok {
		values, err := godotenv.Read(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read env file %s: %w", path, err)
		}
		lookup = withFallback(lookup, values)
	}

	var cfg Config

	if path, ok := nonEmpty(lookup, "NUPI_ADAPTER_CONFIG_FILE"); ok {
		if err := applyFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if raw, ok := nonEmpty(lookup, "NUPI_ADAPTER_CONFIG"); ok {
		if err := applyJSON(raw, &cfg); err != nil {
			return Config{}, err
		}
	}

	overrideString(lookup, "NUPI_STT_ENGINE", &cfg.Engine)
	overrideString(lookup, "NUPI_LOG_LEVEL", &cfg.LogLevel)
	overrideString(lookup, "NUPI_LOG_FORMAT", &cfg.LogFormat)
	overrideString(lookup, "NUPI_MODEL_VARIANT", &cfg.ModelVariant)
	overrideString(lookup, "NUPI_LANGUAGE_HINT", &cfg.Language)
	overrideString(lookup, "NUPI_ADAPTER_DATA_DIR", &cfg.DataDir)
	overrideString(lookup, "NUPI_MODEL_PATH", &cfg.ModelPath)
	overrideString(lookup, "NUPI_ADAPTER_HEALTH_ADDR", &cfg.HealthAddr)
	overrideString(lookup, "NUPI_ADAPTER_MONITOR_ADDR", &cfg.MonitorAddr)
	if raw, ok := nonEmpty(lookup, "NUPI_ADAPTER_MONITOR_ORIGINS"); ok {
		cfg.MonitorOrigins = splitList(raw)
	}
	overrideString(lookup, "OPENAI_API_KEY", &cfg.OpenAIAPIKey)
	overrideString(lookup, "OPENAI_BASE_URL", &cfg.OpenAIBaseURL)
	overrideString(lookup, "OPENAI_STT_MODEL", &cfg.OpenAIModel)

	overrides := []error{
		overrideBool(lookup, "NUPI_ADAPTER_USE_STUB_ENGINE", func(v bool) { cfg.UseStubEngine = v }),
		overrideBool(lookup, "WHISPERCPP_USE_GPU", func(v bool) { cfg.UseGPU = &v }),
		overrideBool(lookup, "WHISPERCPP_FLASH_ATTENTION", func(v bool) { cfg.FlashAttention = &v }),
		overrideInt(lookup, "WHISPERCPP_THREADS", func(v int) { cfg.Threads = autoInt(v) }),
		overrideInt(lookup, "WHISPERCPP_BEAM_SIZE", func(v int) { cfg.BeamSize = &v }),
		overrideInt(lookup, "NUPI_STT_CHUNK_SIZE", func(v int) { cfg.ChunkSize = v }),
		overrideDuration(lookup, "NUPI_STT_WINDOW_STEP", &cfg.WindowStep),
		overrideDuration(lookup, "NUPI_STT_SILENCE_TIMEOUT", &cfg.SilenceTimeout),
		overrideDuration(lookup, "NUPI_STT_MAX_SPAN", &cfg.MaxSpan),
		overrideDuration(lookup, "NUPI_STT_POLL_INTERVAL", &cfg.PollInterval),
	}
	for _, err := range overrides {
		if err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func withFallback(primary func(string) (string, bool), fallback map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if value, ok := primary(key); ok {
			return value, true
		}
		value, ok := fallback[key]
		return value, ok
	}
}

func nonEmpty(lookup func(string) (string, bool), key string) (string, bool) {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if lookup == nil || target == nil {
		return
	}
	if value, ok := nonEmpty(lookup, key); ok {
		*target = value
	}
}

func overrideBool(lookup func(string) (string, bool), key string, set func(bool)) error {
	value, ok := nonEmpty(lookup, key)
	if !ok {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	set(parsed)
	return nil
}

func overrideInt(lookup func(string) (string, bool), key string, set func(int)) error {
	value, ok := nonEmpty(lookup, key)
	if !ok {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	set(parsed)
	return nil
}

func overrideDuration(lookup func(string) (string, bool), key string, target *time.Duration) error {
	value, ok := nonEmpty(lookup, key)
	if !ok {
		return nil
	}
	parsed, err := parseDuration(value)
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*target = parsed
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
