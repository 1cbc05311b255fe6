package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/behonest/leadscore-cli/internal/pipeline"
	"github.com/behonest/leadscore-cli/internal/store"
	"github.com/behonest/leadscore-cli/internal/sults"
)

// initStore opens and migrates the configured persistence backend.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initPipeline wires the SULTS client into a ready-to-run pipeline.
func initPipeline() *pipeline.Pipeline {
	client := sults.New(sults.Options{
		Token:      cfg.Sults.Token,
		BaseURL:    cfg.Sults.BaseURL,
		FunnelID:   cfg.Sults.FunnelID,
		PageSize:   cfg.Sults.PageSize,
		MaxPages:   cfg.Sults.MaxPages,
		MaxRetries: cfg.Sults.MaxRetries,
		Timeout:    time.Duration(cfg.Sults.TimeoutSecs) * time.Second,
	})
	return pipeline.New(cfg, client, client)
}
