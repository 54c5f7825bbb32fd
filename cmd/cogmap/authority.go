package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cogmap/infrastructure/config"
	"cogmap/infrastructure/observability"
	"cogmap/interfaces/websocket"
	"cogmap/pkg/logging"
)

type echoResponder struct{}

func (echoResponder) Respond(_ context.Context, question, currentNodeID string) (string, error) {
	return fmt.Sprintf("[%s] %s", currentNodeID, question), nil
}

func runAuthority(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var responder websocket.Responder
	if authorityEcho {
		responder = echoResponder{}
	}

	collector := observability.NewCollector("cogmap")
	hub := websocket.NewHub(logger.Named("authority-hub"), websocket.WithObserver("authority", collector))
	authority, err := websocket.NewAuthority(cfg.RootID, cfg.RootLabel, hub, responder, logger)
	if err != nil {
		return err
	}
	go hub.Run(ctx)

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	router.Handle("/metrics", promhttp.HandlerFor(collector.GetRegistry(), promhttp.HandlerOpts{}))
	router.Handle(authorityPath, authority)

	srv := &http.Server{
		Addr:        authorityAddr,
		Handler:     router,
		IdleTimeout: 60 * time.Second,
	}
	go func() {
		logger.Info("Starting authority",
			zap.String("address", authorityAddr),
			zap.String("path", authorityPath),
			zap.String("rootID", cfg.RootID),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Authority failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down authority...", zap.Int("nodes", len(authority.Records())))
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
