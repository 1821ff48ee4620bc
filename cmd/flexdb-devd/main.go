// Command flexdb-devd runs a local FlexDB-compatible server for development and tests.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/flexdb/flexdb-go/internal/config"
	"github.com/flexdb/flexdb-go/internal/engine"
	"github.com/flexdb/flexdb-go/internal/server"
	"github.com/flexdb/flexdb-go/internal/vault"
)

func main() {
	cfg, err := config.LoadDevd()
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "flexdb-devd",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	gin.SetMode(gin.ReleaseMode)

	// 1. Initialize persistence and load existing data
	var persister *engine.Persistence
	var initialData map[string]*engine.Snapshot
	if cfg.DataDir != "" {
		persister, err = engine.NewPersistence(afero.NewOsFs(), cfg.DataDir, logger.Named("persistence"))
		if err != nil {
			logger.Error("failed to initialize persistence", "dir", cfg.DataDir, "error", err)
			os.Exit(1)
		}
		initialData, err = persister.LoadAll()
		if err != nil {
			logger.Warn("could not load existing data", "error", err)
		}
	}

	store := engine.NewMemStore(initialData, persister)
	logger.Info("engine started", "stores", len(initialData), "persistent", persister != nil)

	// 2. Build the router
	router := server.NewRouter(store, server.Options{
		Accounts: cfg.APIKeys,
		BasePath: cfg.BasePath,
		Logger:   logger.Named("http"),
	})

	if !cfg.DisableTLS {
		logger.Info("generating self-signed certificate")
		cert, err := vault.GenerateSelfSignedCert()
		if err != nil {
			logger.Error("failed to generate TLS certificate", "error", err)
			os.Exit(1)
		}
		router.SetCertificate(cert)
	} else {
		logger.Info("TLS disabled", "env", config.EnvDevdDisableTLS)
	}

	// 3. Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("shutdown signal received, finalizing disk writes", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := router.Stop(ctx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
	}()

	// 4. Serve until stopped
	if err := router.Listen(cfg.Addr); err != nil {
		logger.Error("server failed", "error", err)
		store.Wait()
		os.Exit(1)
	}
	store.Wait()
	logger.Info("persistence complete, exiting")
}
