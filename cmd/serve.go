package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"extractor/internal/api"
	"extractor/internal/api/handler/v1handler"
	"extractor/internal/config"
	"extractor/internal/scanner"
	"extractor/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func setupServer(ctx context.Context, cfg *config.Config, s scanner.Scanner, g prometheus.Gatherer) func(ctx context.Context) {
	server := api.NewServer(api.Deps{
		Deps:     v1handler.Deps{Scanner: s},
		Gatherer: g,
	}, api.NewOptions(cfg))
	// in-flight runs stop between files once ctx is cancelled
	server.BaseContext = func(net.Listener) context.Context { return ctx }

	go func() {
		logger.Info(ctx, "starting webserver...", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start webserver", zap.Error(err))
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping webserver...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}
}

func serveCommand(cfg *config.Config) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the web form for running extractions",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cmd.Flags().Changed("addr") {
				cfg.HTTP.Addr = addr
			}

			s, reg, closeMetrics := newScanner(ctx)
			defer closeMetrics()

			stopWebserver := setupServer(ctx, cfg, s, reg)

			// wait for interrupt
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopWebserver(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides the configured one")

	return cmd
}
