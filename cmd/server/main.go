package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docxer/docxer/internal/api"
	"github.com/docxer/docxer/internal/config"
	"github.com/docxer/docxer/internal/llm"
	"github.com/docxer/docxer/internal/pipeline"
	"github.com/docxer/docxer/internal/session"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirs(); err != nil {
		log.Error("failed to create directories", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the LLM backend.
	backend, err := llm.New(ctx, llm.FromConfig(cfg))
	if err != nil {
		log.Error("failed to create LLM client", "provider", cfg.LLMProvider, "error", err)
		os.Exit(1)
	}
	gen := llm.Instrument(backend, llm.NewStats(time.Hour))

	// Initialize pipeline.
	sessions := session.NewStore(cfg.SessionTTL)
	orch := pipeline.NewOrchestrator(cfg, gen, sessions, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, sessions, gen, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		gen.Close()
	}()

	log.Info("starting docxer", "port", cfg.Port, "provider", cfg.LLMProvider, "model", gen.Model())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
