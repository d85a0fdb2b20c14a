package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/adapterinfo"
	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/config"
	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/engine"
	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/events"
	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/ingest"
	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/server"
	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/session"
	"github.com/nupi-ai/plugin-stt-stream-whisper/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run(os.Stdin, os.Stdout, os.Stderr))
}

func run(stdin io.Reader, stdout, stderr io.Writer) int {
	// Writes to a closed stdout return EPIPE instead of killing the process.
	signal.Notify(make(chan os.Signal, 1), syscall.SIGPIPE)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Loader{}.Load()
	if err != nil {
		logger := newLogger(stderr, config.DefaultLogLevel, config.DefaultLogFormat)
		logger.Error("failed to load configuration", "error", err)
		_ = events.NewEmitter(stdout, logger).Emit(events.Error(err.Error()))
		return 1
	}

	logger := newLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	sessionID := uuid.NewString()
	logger.Info("starting adapter",
		"session_id", sessionID,
		"metadata", adapterinfo.SessionMetadata(cfg.EngineKind(), cfg.ModelVariant, cfg.Language),
		"window_step", cfg.WindowStep,
		"silence_timeout", cfg.SilenceTimeout,
		"max_span", cfg.MaxSpan,
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := telemetry.NewRecorder(logger, sessionID, telemetry.NewMetrics(registry))

	emitter := events.NewEmitter(stdout, logger)
	emitter.Observe(func(ev events.Event) { recorder.RecordEvent(string(ev.Type)) })

	var health *server.Health
	if cfg.HealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.HealthAddr)
		if err != nil {
			return initFailure(logger, emitter, fmt.Errorf("bind health listener: %w", err))
		}
		health = server.NewHealth(logger)
		go func() {
			if err := health.Serve(lis); err != nil {
				logger.Error("health server terminated with error", "error", err)
			}
		}()
		defer health.Stop(shutdownTimeout)
	}

	if cfg.MonitorAddr != "" {
		lis, err := net.Listen("tcp", cfg.MonitorAddr)
		if err != nil {
			return initFailure(logger, emitter, fmt.Errorf("bind monitor listener: %w", err))
		}
		monitor := server.NewMonitor(registry, logger, cfg.MonitorOrigins...)
		emitter.Observe(monitor.Hub().Publish)
		go func() {
			if err := monitor.Serve(lis); err != nil {
				logger.Error("monitor terminated with error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := monitor.Shutdown(shutdownCtx); err != nil {
				logger.Warn("monitor shutdown failed", "error", err)
			}
		}()
	}

	// Only an explicit stub opt-in runs without a real backend.
	eng, modelPath, err := engine.New(cfg, logger)
	if err != nil {
		return initFailure(logger, emitter, err)
	}
	if modelPath != "" {
		logger.Info("resolved model path", "path", modelPath)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Warn("failed to close engine", "error", err)
		}
	}()

	if err := emitter.Emit(events.Ready()); err != nil {
		logger.Error("failed to announce readiness", "error", err)
		return 1
	}
	if health != nil {
		health.SetServing(true)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	mailbox := ingest.NewMailbox()
	ingestor := ingest.NewIngestor(stdin, cfg.ChunkSize, logger)
	go func() {
		defer cancel()
		if err := ingestor.Run(loopCtx, mailbox); err != nil {
			logger.Error("ingestion stopped", "error", err)
		}
	}()

	sess := session.New(cfg, session.Options{
		ID:       sessionID,
		Engine:   eng,
		Mailbox:  mailbox,
		Emitter:  emitter,
		Recorder: recorder,
		Logger:   logger,
	})
	runErr := sess.Run(loopCtx)
	if health != nil {
		health.SetServing(false)
	}

	if runErr != nil {
		logger.Error("processing loop stopped", "error", runErr)
		return 1
	}
	logger.Info("adapter stopped")
	return 0
}

// initFailure reports a startup error as a single error event.
func initFailure(logger *slog.Logger, emitter *events.Emitter, err error) int {
	logger.Error("initialisation failed", "error", err)
	if emitErr := emitter.Emit(events.Error(err.Error())); emitErr != nil {
		logger.Warn("failed to emit error event", "error", emitErr)
	}
	return 1
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(value string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
