// Package store persists classified leads and run records behind a single
// interface with SQLite and Postgres implementations.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/behonest/leadscore-cli/internal/config"
	"github.com/behonest/leadscore-cli/internal/model"
)

// upsertBatchSize bounds the number of leads written per statement.
const upsertBatchSize = 100

// LeadFilter specifies criteria for listing stored leads.
type LeadFilter struct {
	Tier   model.Tier `json:"tier,omitempty"`
	Limit  int        `json:"limit,omitempty"`
	Offset int        `json:"offset,omitempty"`
}

// Store defines the persistence interface for the scoring pipeline.
type Store interface {
	// Leads
	UpsertLeads(ctx context.Context, leads []model.EnrichedLead) (int, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]model.EnrichedLead, error)
	CountByTier(ctx context.Context) (map[model.Tier]int, error)

	// Runs
	CreateRun(ctx context.Context) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, leadsTotal, leadsKept int, message string) error
	LastRun(ctx context.Context) (*model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the Store selected by config.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// batches splits leads into chunks of upsertBatchSize, preserving order.
func batches(leads []model.EnrichedLead) [][]model.EnrichedLead {
	var out [][]model.EnrichedLead
	for start := 0; start < len(leads); start += upsertBatchSize {
		end := min(start+upsertBatchSize, len(leads))
		out = append(out, leads[start:end])
	}
	return out
}
