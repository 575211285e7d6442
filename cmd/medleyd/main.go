package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"medley/internal/config"
	"medley/internal/daemon"
	"medley/internal/deps"
	"medley/internal/library"
	"medley/internal/logging"
	"medley/internal/notifications"
	"medley/internal/scanner"
	"medley/internal/search"
	"medley/internal/workflow"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	binaries := deps.CheckBinaries(deps.Requirements(cfg))
	if missing := deps.MissingRequired(binaries); len(missing) > 0 {
		logger.Warn("required dependencies missing; items will fail until installed",
			logging.Any("missing", missing))
	}
	if ollama := deps.CheckOllama(ctx, cfg); !ollama.Available {
		logger.Warn("ollama unreachable; tagging and embedding will stall",
			logging.String("detail", ollama.Detail))
	}

	store, err := library.Open(cfg)
	if err != nil {
		logger.Error("open catalog store", logging.Error(err))
		return
	}
	defer store.Close()

	notifier := notifications.NewService(cfg)
	manager := workflow.NewManager(cfg, store, logger, notifier)
	registerStages(manager, cfg, store, logger)

	scan := scanner.New(cfg, store, logger)
	searcher := search.NewSearcher(cfg, store, logger)

	d, err := daemon.New(cfg, store, logger, manager, scan, searcher, notifier)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("medleyd shutting down")
	d.Stop()
}
