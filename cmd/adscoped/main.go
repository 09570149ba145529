package main

import (
	"context"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"

	"adscope/internal/config"
	"adscope/internal/daemon"
	"adscope/internal/logging"
	"adscope/internal/records"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, path, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "adscoped.log")},
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	logger.Info("configuration loaded", logging.String("path", path))

	var store *records.Store
	if cfg.Records.Enabled {
		store, err = records.Open(cfg)
		if err != nil {
			logger.Error("open record cache", logging.Error(err))
			return
		}
	}

	d, err := daemon.New(cfg, store, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("adscoped shutting down")
}
