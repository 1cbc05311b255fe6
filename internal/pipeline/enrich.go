package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/behonest/leadscore-cli/internal/model"
	"github.com/behonest/leadscore-cli/internal/normalize"
)

// TimelineFetcher fetches the timeline of a single lead.
type TimelineFetcher interface {
	FetchTimeline(ctx context.Context, leadID int64) ([]model.TimelineItem, error)
}

// Enricher mines each lead's timeline for an investment-capacity figure,
// fetching in fixed-size groups to bound in-flight requests.
type Enricher struct {
	fetcher       TimelineFetcher
	groupSize     int
	minInvestment float64
}

// NewEnricher creates an Enricher. groupSize bounds concurrent fetches.
func NewEnricher(fetcher TimelineFetcher, groupSize int, minInvestment float64) *Enricher {
	if groupSize <= 0 {
		groupSize = 5
	}
	return &Enricher{
		fetcher:       fetcher,
		groupSize:     groupSize,
		minInvestment: minInvestment,
	}
}

// MineInvestments returns the mined investment value for each lead, indexed
// as the input. Leads are processed in groups: every fetch in a group runs
// concurrently and the next group only starts once the whole group has
// resolved. A failed or empty timeline yields 0 for that lead and nothing
// else; one lead's failure never aborts its group.
func (e *Enricher) MineInvestments(ctx context.Context, leads []model.RawLead, onProgress func(string)) []float64 {
	values := make([]float64, len(leads))

	for start := 0; start < len(leads); start += e.groupSize {
		end := min(start+e.groupSize, len(leads))

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			lead := leads[i]
			slot := i
			g.Go(func() error {
				items, err := e.fetcher.FetchTimeline(gctx, lead.ID)
				if err != nil {
					zap.L().Warn("enrich: timeline fetch failed, assuming no investment",
						zap.Int64("lead_id", lead.ID),
						zap.Error(err),
					)
					return nil
				}
				values[slot] = e.investmentFromTimeline(items)
				return nil
			})
		}
		_ = g.Wait() // goroutines never return errors; the barrier is what matters

		if onProgress != nil {
			onProgress(fmt.Sprintf("enriched %d/%d leads", end, len(leads)))
		}
	}

	return values
}

// investmentFromTimeline scans timeline items in received order and their
// HTML fields in priority order, returning the first qualifying figure.
func (e *Enricher) investmentFromTimeline(items []model.TimelineItem) float64 {
	for _, item := range items {
		for _, fragment := range item.HTMLFields() {
			if fragment == "" {
				continue
			}
			text := normalize.HTMLText(fragment)
			if v := ExtractInvestment(text, e.minInvestment); v > 0 {
				return v
			}
		}
	}
	return 0
}
