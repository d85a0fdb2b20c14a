package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/config"
)

// ErrNativeEngineUnavailable indicates that the native backend is not compiled in.
var ErrNativeEngineUnavailable = errors.New("engine: native backend unavailable")

// ErrModelNotFound is returned when the resolved model file does not exist.
var ErrModelNotFound = errors.New("engine: model file not found")

// New builds the configured engine and returns it together with the model
// path it was loaded from (empty for the stub and remote engines). The stub
// is only returned when the configuration asks for it; a whisper engine in a
// build without the native backend fails with ErrNativeEngineUnavailable.
func New(cfg config.Config, logger *slog.Logger) (Engine, string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch Kind(cfg.EngineKind()) {
	case KindStub:
		logger.Warn("stub engine forced by configuration")
		return NewStubEngine(logger, cfg.ModelVariant), "", nil

	case KindOpenAI:
		eng, err := NewOpenAIEngine(OpenAIOptions{
			APIKey:   cfg.OpenAIAPIKey,
			BaseURL:  cfg.OpenAIBaseURL,
			Model:    cfg.OpenAIModel,
			Language: cfg.Language,
		}, logger)
		if err != nil {
			return nil, "", err
		}
		logger.Info("remote engine ready", "model", cfg.OpenAIModel, "base_url", cfg.OpenAIBaseURL)
		return eng, "", nil

	case KindWhisper:
		modelPath := ResolveModelPath(cfg)
		if !NativeAvailable() {
			return nil, modelPath, fmt.Errorf("%w: rebuild with -tags whispercpp or set engine to stub", ErrNativeEngineUnavailable)
		}
		if _, err := os.Stat(modelPath); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, modelPath, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
			}
			return nil, modelPath, fmt.Errorf("engine: stat model: %w", err)
		}
		native, err := NewNativeEngine(modelPath, NativeOptions{
			UseGPU:         cfg.UseGPU,
			FlashAttention: cfg.FlashAttention,
			Threads:        cfg.Threads,
			BeamSize:       cfg.BeamSize,
			Language:       cfg.Language,
		})
		if err != nil {
			return nil, modelPath, err
		}
		logger.Info("native engine ready", "model_path", modelPath)
		return native, modelPath, nil
	}

	return nil, "", fmt.Errorf("engine: unknown engine %q", cfg.EngineKind())
}

// ResolveModelPath returns the explicit model path or the conventional
// <data_dir>/models/ggml-<variant>.bin location.
func ResolveModelPath(cfg config.Config) string {
	if path := strings.TrimSpace(cfg.ModelPath); path != "" {
		return path
	}
	variant := strings.TrimSpace(cfg.ModelVariant)
	if variant == "" {
		variant = config.DefaultModel
	}
	return filepath.Join(cfg.DataDir, "models", "ggml-"+variant+".bin")
}
