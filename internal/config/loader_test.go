package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/config"
)

func mapLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
}

func TestLoaderDefaults(t *testing.T) {
	loader := config.Loader{Lookup: mapLookup(nil)}
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	assertEqual(t, config.DefaultEngine, cfg.Engine, "engine")
	assertEqual(t, config.DefaultModel, cfg.ModelVariant, "model variant")
	assertEqual(t, config.DefaultLanguage, cfg.Language, "language")
	assertEqual(t, config.DefaultLogLevel, cfg.LogLevel, "log level")
	assertEqual(t, config.DefaultLogFormat, cfg.LogFormat, "log format")
	assertEqual(t, config.DefaultDataDir, cfg.DataDir, "data dir")
	assertEqual(t, "", cfg.ModelPath, "model path")
	assertEqual(t, "", cfg.HealthAddr, "health addr")
	assertEqual(t, "", cfg.MonitorAddr, "monitor addr")
	assertDuration(t, config.DefaultWindowStep, cfg.WindowStep, "window step")
	assertDuration(t, config.DefaultSilenceTimeout, cfg.SilenceTimeout, "silence timeout")
	assertDuration(t, config.DefaultMaxSpan, cfg.MaxSpan, "max span")
	assertDuration(t, config.DefaultPollInterval, cfg.PollInterval, "poll interval")
	if cfg.ChunkSize != config.DefaultChunkSize {
		t.Fatalf("expected chunk size %d, got %d", config.DefaultChunkSize, cfg.ChunkSize)
	}
	if cfg.UseStubEngine {
		t.Fatalf("expected stub engine disabled by default")
	}
	if cfg.UseGPU != nil {
		t.Fatalf("expected use_gpu default (nil), got %v", *cfg.UseGPU)
	}
	if cfg.Threads != nil {
		t.Fatalf("expected threads default (nil), got %v", *cfg.Threads)
	}
	assertIntPtr(t, config.DefaultBeamSize, cfg.BeamSize, "beam size")
	assertEqual(t, "whisper", cfg.EngineKind(), "engine kind")
}

func TestLoaderOverrides(t *testing.T) {
	env := map[string]string{
		"NUPI_ADAPTER_CONFIG":          `{"model_variant":"small","language":"pl","log_level":"debug","data_dir":"/tmp/data","model_path":"/tmp/models/custom.bin","use_stub_engine":false,"use_gpu":false,"flash_attention":true,"threads":4,"window_step":"500ms"}`,
		"NUPI_LOG_LEVEL":               "warn",
		"NUPI_LOG_FORMAT":              "json",
		"NUPI_MODEL_VARIANT":           "medium",
		"NUPI_LANGUAGE_HINT":           "en",
		"NUPI_ADAPTER_DATA_DIR":        "/var/lib/nupi",
		"NUPI_MODEL_PATH":              "/var/lib/nupi/models/medium.bin",
		"NUPI_ADAPTER_USE_STUB_ENGINE": "true",
		"NUPI_ADAPTER_HEALTH_ADDR":     "127.0.0.1:50052",
		"NUPI_ADAPTER_MONITOR_ADDR":    "127.0.0.1:9090",
		"NUPI_STT_SILENCE_TIMEOUT":     "3",
		"NUPI_STT_MAX_SPAN":            "15s",
		"WHISPERCPP_USE_GPU":           "true",
		"WHISPERCPP_FLASH_ATTENTION":   "false",
		"WHISPERCPP_THREADS":           "6",
		"WHISPERCPP_BEAM_SIZE":         "5",
	}

	cfg, err := config.Loader{Lookup: mapLookup(env)}.Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	assertEqual(t, "medium", cfg.ModelVariant, "model variant")
	assertEqual(t, "en", cfg.Language, "language")
	assertEqual(t, "warn", cfg.LogLevel, "log level")
	assertEqual(t, "json", cfg.LogFormat, "log format")
	assertEqual(t, "/var/lib/nupi", cfg.DataDir, "data dir")
	assertEqual(t, "/var/lib/nupi/models/medium.bin", cfg.ModelPath, "model path")
	assertEqual(t, "127.0.0.1:50052", cfg.HealthAddr, "health addr")
	assertEqual(t, "127.0.0.1:9090", cfg.MonitorAddr, "monitor addr")
	assertBool(t, true, cfg.UseStubEngine, "use stub engine")
	assertEqual(t, "stub", cfg.EngineKind(), "engine kind")
	assertBoolPtr(t, true, cfg.UseGPU, "use gpu")
	assertBoolPtr(t, false, cfg.FlashAttention, "flash attention")
	assertIntPtr(t, 6, cfg.Threads, "threads")
	assertIntPtr(t, 5, cfg.BeamSize, "beam size")
	assertDuration(t, 500*time.Millisecond, cfg.WindowStep, "window step")
	assertDuration(t, 3*time.Second, cfg.SilenceTimeout, "silence timeout")
	assertDuration(t, 15*time.Second, cfg.MaxSpan, "max span")
}

func TestLoaderThreadsAuto(t *testing.T) {
	env := map[string]string{
		"NUPI_ADAPTER_CONFIG": `{"threads":0}`,
	}

	cfg, err := config.Loader{Lookup: mapLookup(env)}.Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Threads != nil {
		t.Fatalf("expected threads nil when configured as 0, got %v", *cfg.Threads)
	}
}

func TestLoaderYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "adapter.yaml")
	content := strings.Join([]string{
		"engine: openai",
		"openai_api_key: sk-file",
		"openai_base_url: http://localhost:8000/v1",
		"language: de",
		"window_step: \"0.5\"",
		"silence_timeout: 2500ms",
		"chunk_size: 8192",
		"beam_size: 2",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	env := map[string]string{
		"NUPI_ADAPTER_CONFIG_FILE": path,
		"NUPI_ADAPTER_CONFIG":      `{"language":"fr"}`,
	}
	cfg, err := config.Loader{Lookup: mapLookup(env)}.Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	assertEqual(t, "openai", cfg.Engine, "engine")
	assertEqual(t, "sk-file", cfg.OpenAIAPIKey, "api key")
	assertEqual(t, "http://localhost:8000/v1", cfg.OpenAIBaseURL, "base url")
	assertEqual(t, config.DefaultOpenAIModel, cfg.OpenAIModel, "openai model")
	assertEqual(t, "fr", cfg.Language, "language (JSON wins over file)")
	assertDuration(t, 500*time.Millisecond, cfg.WindowStep, "window step")
	assertDuration(t, 2500*time.Millisecond, cfg.SilenceTimeout, "silence timeout")
	assertIntPtr(t, 2, cfg.BeamSize, "beam size")
	if cfg.ChunkSize != 8192 {
		t.Fatalf("expected chunk size 8192, got %d", cfg.ChunkSize)
	}
}

func TestLoaderMonitorOrigins(t *testing.T) {
	cfg, err := config.Loader{Lookup: mapLookup(map[string]string{
		"NUPI_ADAPTER_CONFIG":          `{"monitor_origins":["http://file.example"]}`,
		"NUPI_ADAPTER_MONITOR_ORIGINS": " http://a.example , ,http://b.example",
	})}.Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	want := []string{"http://a.example", "http://b.example"}
	if strings.Join(cfg.MonitorOrigins, "|") != strings.Join(want, "|") {
		t.Fatalf("expected origins %v, got %v", want, cfg.MonitorOrigins)
	}

	cfg, err = config.Loader{Lookup: mapLookup(map[string]string{
		"NUPI_ADAPTER_CONFIG": `{"monitor_origins":["http://file.example"]}`,
	})}.Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if len(cfg.MonitorOrigins) != 1 || cfg.MonitorOrigins[0] != "http://file.example" {
		t.Fatalf("expected payload origins, got %v", cfg.MonitorOrigins)
	}
}

func TestLoaderEnvFileFillsMissingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "NUPI_MODEL_VARIANT=tiny.en\nNUPI_LOG_LEVEL=debug\nexport OPENAI_API_KEY=\"sk-dotenv\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	env := map[string]string{
		"NUPI_ADAPTER_ENV_FILE": path,
		"NUPI_LOG_LEVEL":        "error",
	}
	cfg, err := config.Loader{Lookup: mapLookup(env)}.Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	assertEqual(t, "tiny.en", cfg.ModelVariant, "model variant")
	assertEqual(t, "error", cfg.LogLevel, "process env wins over env file")
	assertEqual(t, "sk-dotenv", cfg.OpenAIAPIKey, "api key")
}

func TestLoaderRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad json", map[string]string{"NUPI_ADAPTER_CONFIG": `{`}, "decode"},
		{"unknown engine", map[string]string{"NUPI_STT_ENGINE": "kaldi"}, "unknown engine"},
		{"openai without key", map[string]string{"NUPI_STT_ENGINE": "openai"}, "API key"},
		{"silence below step", map[string]string{"NUPI_STT_WINDOW_STEP": "3s"}, "silence_timeout"},
		{"bad bool", map[string]string{"WHISPERCPP_USE_GPU": "maybe"}, "WHISPERCPP_USE_GPU"},
		{"bad duration", map[string]string{"NUPI_STT_MAX_SPAN": "soon"}, "NUPI_STT_MAX_SPAN"},
		{"bad beam", map[string]string{"WHISPERCPP_BEAM_SIZE": "0"}, "beam_size"},
		{"negative threads", map[string]string{"WHISPERCPP_THREADS": "-1"}, "threads"},
		{"tiny chunk", map[string]string{"NUPI_STT_CHUNK_SIZE": "1"}, "chunk_size"},
		{"bad log format", map[string]string{"NUPI_LOG_FORMAT": "xml"}, "log_format"},
		{"missing env file", map[string]string{"NUPI_ADAPTER_ENV_FILE": "/nonexistent/.env"}, "env file"},
		{"missing config file", map[string]string{"NUPI_ADAPTER_CONFIG_FILE": "/nonexistent/adapter.yaml"}, "read"},
		{"bad payload duration", map[string]string{"NUPI_ADAPTER_CONFIG": `{"window_step":"later"}`}, "window_step"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Loader{Lookup: mapLookup(tc.env)}.Load()
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestStubEngineSkipsAPIKeyCheck(t *testing.T) {
	env := map[string]string{
		"NUPI_STT_ENGINE":              "openai",
		"NUPI_ADAPTER_USE_STUB_ENGINE": "1",
	}
	cfg, err := config.Loader{Lookup: mapLookup(env)}.Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	assertEqual(t, "stub", cfg.EngineKind(), "engine kind")
}

func assertEqual(t *testing.T, want, got, label string) {
	t.Helper()
	if want != got {
		t.Fatalf("unexpected %s: want %q, got %q", label, want, got)
	}
}

func assertBool(t *testing.T, want, got bool, label string) {
	t.Helper()
	if want != got {
		t.Fatalf("unexpected %s: want %v, got %v", label, want, got)
	}
}

func assertDuration(t *testing.T, want, got time.Duration, label string) {
	t.Helper()
	if want != got {
		t.Fatalf("unexpected %s: want %s, got %s", label, want, got)
	}
}

func assertBoolPtr(t *testing.T, want bool, got *bool, label string) {
	t.Helper()
	if got == nil {
		t.Fatalf("unexpected %s: want %v, got nil", label, want)
	}
	if *got != want {
		t.Fatalf("unexpected %s: want %v, got %v", label, want, *got)
	}
}

func assertIntPtr(t *testing.T, want int, got *int, label string) {
	t.Helper()
	if got == nil {
		t.Fatalf("unexpected %s: want %d, got nil", label, want)
	}
	if *got != want {
		t.Fatalf("unexpected %s: want %d, got %d", label, want, *got)
	}
}
