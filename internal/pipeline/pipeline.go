// Package pipeline turns raw SULTS leads into classified, index-scored
// records: filter, timeline enrichment, dataset-relative indexing and tier
// classification, in that order.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/behonest/leadscore-cli/internal/config"
	"github.com/behonest/leadscore-cli/internal/model"
	"github.com/behonest/leadscore-cli/internal/normalize"
)

// ErrMissingToken is returned before any network activity when no SULTS
// token is configured.
var ErrMissingToken = eris.New("pipeline: sults token not configured")

// Progress receives human-readable status messages during a run.
type Progress func(string)

// LeadSource lists raw leads from the CRM.
type LeadSource interface {
	FetchLeads(ctx context.Context, onProgress func(string)) []model.RawLead
}

// Pipeline orchestrates the full enrichment run.
type Pipeline struct {
	cfg      *config.Config
	source   LeadSource
	filter   *Filter
	enricher *Enricher
	calc     *Calculator
}

// New wires a Pipeline from config and its two network collaborators.
func New(cfg *config.Config, source LeadSource, timelines TimelineFetcher) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		source:   source,
		filter:   NewFilter(cfg.Filter.BlacklistIDs),
		enricher: NewEnricher(timelines, cfg.Enrich.GroupSize, cfg.Scoring.MinInvestment),
		calc:     NewCalculator(cfg.Franchise, cfg.Scoring.InvestmentCap),
	}
}

// Run executes the pipeline and returns the classified leads in their
// surviving order. A pagination failure upstream yields a partial result,
// not an error; only a missing token fails the call.
func (p *Pipeline) Run(ctx context.Context, onProgress Progress) ([]model.EnrichedLead, error) {
	if strings.TrimSpace(p.cfg.Sults.Token) == "" {
		return nil, ErrMissingToken
	}

	progress := func(msg string) {
		if onProgress != nil {
			onProgress(msg)
		}
	}

	raw := p.source.FetchLeads(ctx, progress)
	kept := p.filter.Apply(raw)
	progress(fmt.Sprintf("kept %d of %d leads after filtering", len(kept), len(raw)))

	values := p.enricher.MineInvestments(ctx, kept, progress)

	enriched := make([]model.EnrichedLead, len(kept))
	for i, lead := range kept {
		enriched[i] = flattenLead(lead, values[i])
	}

	enriched = DedupeByPhone(enriched)

	minDate, maxDate, hasDates := DateRange(enriched)
	for i := range enriched {
		lead := enriched[i]

		lead.LocationIndex = p.calc.LocationIndex(lead.State, lead.City)
		lead.InvestmentIndex = p.calc.InvestmentIndex(lead.AvailableInvestment)

		lead.TimeIndex = 0
		if hasDates {
			if d, err := normalize.ParseDateBR(lead.CreatedAt); err == nil {
				lead.TimeIndex = TimeIndex(d, minDate, maxDate)
			}
		}

		lead.Score = Score(lead.LocationIndex, lead.InvestmentIndex, lead.TimeIndex, p.cfg.Scoring.Weights)
		lead.Classification = Classify(lead.Score, p.cfg.Scoring.Thresholds)

		enriched[i] = lead
	}

	zap.L().Info("pipeline: run complete",
		zap.Int("fetched", len(raw)),
		zap.Int("classified", len(enriched)),
	)
	progress(fmt.Sprintf("classified %d leads", len(enriched)))

	return enriched, nil
}

// flattenLead projects a raw lead onto the enriched record shape, attaching
// the mined investment value. Indices and score are filled in later.
func flattenLead(raw model.RawLead, investment float64) model.EnrichedLead {
	return model.EnrichedLead{
		ID:                  raw.ID,
		CreatedAt:           normalize.FormatDateBR(raw.CreatedAt),
		Title:               raw.Title,
		Name:                raw.ContactName(),
		Email:               raw.ContactEmail(),
		Phone:               raw.ContactPhone(),
		Origin:              relabelOrigin(raw.OriginName()),
		City:                strings.TrimSpace(raw.City),
		State:               strings.ToUpper(strings.TrimSpace(raw.State)),
		Tags:                raw.TagNames(),
		Situation:           raw.SituationName(),
		LossReason:          raw.MergedLossReason(),
		AvailableInvestment: investment,
	}
}

// relabelOrigin renames the retired "Facebook" origin to its current
// ad-platform name.
func relabelOrigin(origin string) string {
	if origin == "Facebook" {
		return "Meta Ads"
	}
	return origin
}
