package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ticketdb/pkg/api"
	"ticketdb/pkg/config"
	"ticketdb/pkg/logger"
	"ticketdb/pkg/security"
	"ticketdb/pkg/store"
	"ticketdb/pkg/tickets"
)

func main() {
	// build metadata - set via ldflags during build/release
	version := "dev"
	_ = godotenv.Load(".env")
	flags := config.ParseCommandFlags()
	cfgPath := config.ResolveConfigPath(flags.Config, flags.Set["config"])

	cfg, err := config.LoadEffective(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	// Flags win over env and file.
	addr := cfg.Addr()
	if flags.Set["addr"] {
		addr = flags.Addr
		if h, p, err := net.SplitHostPort(flags.Addr); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		}
	}
	if flags.Set["mongo"] && flags.Mongo != "" {
		cfg.Mongo.URL = flags.Mongo
	}

	logger.Init(cfg.Logging.Level)
	logger.Info("starting", "version", version, "addr", addr, "database", cfg.Mongo.Database)

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout.Or(10*time.Second))
	st, err := store.Open(connectCtx, store.Options{
		URI:         cfg.Mongo.URL,
		Database:    cfg.Mongo.Database,
		MinPoolSize: cfg.Mongo.MinPoolSize,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	cancelConnect()
	if err != nil {
		logger.Error("store_open_failed", "url", cfg.Mongo.URL, "error", err)
		os.Exit(1)
	}

	handler := api.NewRouter(api.Options{
		Tickets:  tickets.NewService(st),
		Messages: st,
		Security: security.SecConfig{
			AllowedOrigins: cfg.Security.CORS.AllowedOrigins,
			RPS:            cfg.Security.RateLimit.RPS,
			Burst:          cfg.Security.RateLimit.Burst,
		},
		RequestTimeout: cfg.Mongo.RequestTimeout.Or(30 * time.Second),
		MaxBodySize:    int64(cfg.Server.MaxBodySize.Or(1 << 20)),
		Ready:          st.Ping,
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listening", "addr", addr)
		if cfg.Server.TLS.CertFile != "" && cfg.Server.TLS.KeyFile != "" {
			errCh <- srv.ListenAndServeTLS(cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutdown_signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_failed", "error", err)
		}
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Error("http_shutdown_failed", "error", err)
	}
	if err := st.Close(shutCtx); err != nil {
		logger.Error("store_close_failed", "error", err)
	}
	logger.Info("stopped")
}
