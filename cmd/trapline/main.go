package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/trapline-ai/trapline/internal/api"
	"github.com/trapline-ai/trapline/internal/archive"
	"github.com/trapline-ai/trapline/internal/config"
	"github.com/trapline-ai/trapline/internal/detect"
	"github.com/trapline-ai/trapline/internal/engine"
	"github.com/trapline-ai/trapline/internal/events"
	"github.com/trapline-ai/trapline/internal/gemini"
	"github.com/trapline-ai/trapline/internal/persona"
	"github.com/trapline-ai/trapline/internal/report"
	"github.com/trapline-ai/trapline/internal/session"
)

func main() {
	if err := godotenv.Load(); err != nil {
		// No .env file is fine in deployed environments.
		slog.Info("no .env file found, using environment variables")
	}

	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("trapline starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Gemini collaborator — optional. Without a key the honeypot still runs
	// on fallback replies and never flags scams.
	var llm *gemini.Client
	if cfg.GeminiAPIKey != "" {
		llm = gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
		slog.Info("gemini client ready", "model", cfg.GeminiModel)
	} else {
		slog.Warn("GEMINI_API_KEY not set — running with fallback replies only")
	}

	classifier := detect.New(llm, slog.Default())
	replier := persona.NewGenerator(llm, slog.Default())
	reporter := report.NewClient(cfg.CallbackURL, slog.Default())

	eng := engine.New(session.NewMemoryStore(), classifier, replier, reporter, slog.Default())

	// Report archive — optional Postgres persistence.
	if cfg.DatabaseURL != "" {
		arc, err := archive.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer arc.Close()
		eng.WithArchive(arc)
		slog.Info("report archive connected")
	} else {
		slog.Warn("DATABASE_URL not set — reports are not archived")
	}

	// Event bus — optional NATS milestones.
	if cfg.NatsURL != "" {
		pub, err := events.Connect(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer pub.Close()
		eng.WithEvents(pub)
		slog.Info("NATS connected", "url", cfg.NatsURL)
	}

	srv := api.NewServer(cfg.Port, eng, slog.Default())
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("trapline ready", "port", cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("trapline stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
