package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/fxproxy/internal/api"
	"github.com/sawpanic/fxproxy/internal/cache"
	"github.com/sawpanic/fxproxy/internal/config"
	"github.com/sawpanic/fxproxy/internal/rates"
	"github.com/sawpanic/fxproxy/internal/store"
)

const shutdownGrace = 10 * time.Second

func runAPI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	adapter, err := store.New(cfg.Valkey.URI, log.Logger)
	if err != nil {
		return err
	}
	defer adapter.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The sync job and its subscription share a cancellation scope that
	// outlives neither the signal context nor the store clients.
	syncCtx, cancelSync := context.WithCancel(ctx)
	defer cancelSync()

	triggers := adapter.SubscribeRatesUpdated(syncCtx)
	snap, job := cache.New(adapter, triggers, log.Logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		job.Run(syncCtx)
	}()

	engine := rates.NewEngine(snap)
	svc := rates.NewService(engine, log.Logger)
	handlers := api.NewHandlers(svc, snap)
	server := api.NewServer(api.ServerConfig{
		Addr:    cfg.HTTP.Addr,
		Timeout: cfg.HTTP.Timeout.Std(),
	}, handlers, log.Logger)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		cancelSync()
		wg.Wait()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}

	// Stop the sync job and release the subscription before the store
	// clients are closed by the deferred adapter.Close.
	cancelSync()
	wg.Wait()

	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
