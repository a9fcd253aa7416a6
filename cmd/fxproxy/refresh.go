package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/fxproxy/internal/config"
	"github.com/sawpanic/fxproxy/internal/oneframe"
	"github.com/sawpanic/fxproxy/internal/refresher"
	"github.com/sawpanic/fxproxy/internal/store"
)

func runRefresh(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	client := oneframe.NewClient(oneframe.Config{
		BaseURL:    cfg.OneFrame.BaseURL,
		Token:      cfg.OneFrame.Token,
		Timeout:    cfg.OneFrame.Timeout.Std(),
		MaxRetries: cfg.OneFrame.MaxRetries,
	}, log.Logger)

	adapter, err := store.New(cfg.Valkey.URI, log.Logger)
	if err != nil {
		return err
	}
	defer adapter.Close()

	r := refresher.New(client, adapter, log.Logger)
	n, err := r.Refresh(context.Background())
	if err != nil {
		return err
	}
	log.Info().Int("rates", n).Msg("refresh succeeded")
	return nil
}
