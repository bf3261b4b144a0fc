package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/infodancer/tchatd/internal/chat"
	"github.com/infodancer/tchatd/internal/config"
	"github.com/infodancer/tchatd/internal/logging"
	"github.com/infodancer/tchatd/internal/metrics"
	"github.com/infodancer/tchatd/internal/registry"
	"github.com/infodancer/tchatd/internal/server"
	"github.com/infodancer/tchatd/internal/userdir"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	flags := config.ParseFlags()

	cfg, err := config.LoadWithFlags(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.LogLevel)

	var tlsConfig *tls.Config
	if cfg.TLS.CertFile != "" && cfg.TLS.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error loading TLS certificate: %v\n", err)
			os.Exit(1)
		}
		tlsConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   cfg.TLS.MinTLSVersion(),
		}
		logger.Info("TLS configured",
			slog.String("cert", cfg.TLS.CertFile),
			slog.String("min_version", cfg.TLS.MinVersion))
	}

	var collector metrics.Collector = &metrics.NoopCollector{}
	if cfg.Metrics.Enabled {
		collector = metrics.NewPrometheusCollector(prometheus.DefaultRegisterer)
	}

	dir, err := userdir.Load(cfg.UserDirPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading user directory: %v\n", err)
		os.Exit(1)
	}
	logger.Info("user directory loaded", slog.String("path", cfg.UserDirPath))

	reg := registry.New(dir)

	srv, err := server.New(server.Config{
		Cfg:       &cfg,
		TLSConfig: tlsConfig,
		Logger:    logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating server: %v\n", err)
		os.Exit(1)
	}

	handler := chat.Handler(chat.Config{
		Registry: reg,
		Metrics:  collector,
		Logger:   logger,
	})
	srv.SetHandler(handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("received signal, shutting down", slog.String("signal", sig.String()))
		cancel()
	}()

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewPrometheusServer(cfg.Metrics.Address, cfg.Metrics.Path)
		go func() {
			if err := metricsServer.Start(ctx); err != nil && err != context.Canceled {
				logger.Error("metrics server error", slog.String("error", err.Error()))
			}
		}()
		logger.Info("metrics server started",
			slog.String("address", cfg.Metrics.Address),
			slog.String("path", cfg.Metrics.Path))
	}

	logger.Info("starting tchatd",
		slog.String("hostname", cfg.Hostname),
		slog.Int("listeners", len(cfg.Listeners)))

	if err := srv.Run(ctx); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}

	logger.Info("tchatd stopped")
}
