package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/freekieb7/phantom/api"
	"github.com/freekieb7/phantom/cache"
	"github.com/freekieb7/phantom/config"
	"github.com/freekieb7/phantom/dispatch"
	"github.com/freekieb7/phantom/filesystem"
	"github.com/freekieb7/phantom/http"
	nethttp "github.com/freekieb7/phantom/net/http"
	"github.com/freekieb7/phantom/sample"
	"github.com/freekieb7/phantom/static"
	"github.com/freekieb7/phantom/telemetry"
)

type server interface {
	ListenAndServe(addr string) error
	Shutdown(ctx context.Context) error
}

func newServeCmd(v *viper.Viper, configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the document root and the sample application",
		Long: `Start the server. Requests matching /api/[version/]<method>[/id] call a method
of the sample application, everything else is served from the document root.

Examples:
  phantom serve                          # defaults, ./phantom.yaml when present
  phantom serve --port 5023 --cache-index
  PHANTOM_DOC_ROOT=/srv/www/public/ phantom serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, found, err := config.Load(v, *configFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, found)
		},
	}

	d := config.Default()
	flags := cmd.Flags()
	flags.String("doc-root", d.DocRoot, "Document root served for non-API paths")
	flags.Int("port", d.Port, "Port to listen on")
	flags.String("host", d.Host, "Host to bind to; empty accepts on any interface")
	flags.Bool("cache-index", d.CacheIndexFile, "Keep the home resource in memory after the first read")
	flags.String("transport", d.Transport, "HTTP transport: native or stdlib")
	flags.String("log-level", d.LogLevel, "Log level: debug, info, warn or error")

	v.BindPFlag("doc_root", flags.Lookup("doc-root"))
	v.BindPFlag("port", flags.Lookup("port"))
	v.BindPFlag("host", flags.Lookup("host"))
	v.BindPFlag("cache_index_file", flags.Lookup("cache-index"))
	v.BindPFlag("transport", flags.Lookup("transport"))
	v.BindPFlag("log_level", flags.Lookup("log-level"))

	return cmd
}

func run(ctx context.Context, cfg config.Config, configFound bool) error {
	fs := filesystem.NewLocalFileSystem()

	logger, shutdownTelemetry, err := telemetry.Setup(ctx, cfg, fs)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	if !configFound {
		logger.Warn("no config file found, using defaults and environment")
	}
	logger.Info("configuration",
		"doc_root", cfg.DocRoot,
		"port", cfg.Port,
		"host", cfg.Host,
		"server_name", cfg.ServerName,
		"cache_index_file", cfg.CacheIndexFile,
		"transport", cfg.Transport,
		"compress", cfg.Compress,
	)

	registry := api.NewRegistry()
	if err := sample.Register(registry); err != nil {
		return err
	}

	staticServer := static.NewServer(cfg, fs, cache.NewMemoryStore(), logger)
	engine, err := dispatch.NewEngine(cfg, registry, staticServer, logger)
	if err != nil {
		return err
	}

	srv := newServer(cfg, engine.Handler(), logger)

	hostName := cfg.Host
	if hostName == "" {
		hostName = "localhost"
	}
	logger.Info(cfg.ServerName + " started running at => " + hostName + ":" + strconv.Itoa(cfg.Port))

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe(cfg.Addr())
	}()

	select {
	case err := <-serverErrCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-serverErrCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newServer(cfg config.Config, handler http.Handler, logger *slog.Logger) server {
	if cfg.Transport == config.TransportStdlib {
		return nethttp.NewServer(cfg.ServerName, handler, logger)
	}
	srv := http.NewServer(cfg.ServerName, handler, logger)
	srv.Header = cfg.Headers.Default.Clone()
	return srv
}
