package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behonest/leadscore-cli/internal/model"
)

// fakeTimelineFetcher serves canned timelines and records concurrency.
type fakeTimelineFetcher struct {
	mu        sync.Mutex
	timelines map[int64][]model.TimelineItem
	failIDs   map[int64]bool
	inflight  atomic.Int32
	peak      atomic.Int32
	calls     []int64
}

func (f *fakeTimelineFetcher) FetchTimeline(ctx context.Context, leadID int64) ([]model.TimelineItem, error) {
	cur := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		peak := f.peak.Load()
		if cur <= peak || f.peak.CompareAndSwap(peak, cur) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, leadID)
	f.mu.Unlock()

	if f.failIDs[leadID] {
		return nil, eris.New("boom")
	}
	return f.timelines[leadID], nil
}

func timelineWith(html string) []model.TimelineItem {
	return []model.TimelineItem{{DescriptionHTML: html}}
}

func rawLeads(ids ...int64) []model.RawLead {
	leads := make([]model.RawLead, len(ids))
	for i, id := range ids {
		leads[i] = model.RawLead{ID: id}
	}
	return leads
}

func TestMineInvestmentsOrderAndValues(t *testing.T) {
	fetcher := &fakeTimelineFetcher{
		timelines: map[int64][]model.TimelineItem{
			1: timelineWith("<p>capital disponível de 60 mil</p>"),
			2: timelineWith("<p>sem nada relevante</p>"),
			3: timelineWith("<p>Investimento: R$ 150.000,00</p>"),
		},
	}
	e := NewEnricher(fetcher, 2, 1000)

	values := e.MineInvestments(context.Background(), rawLeads(1, 2, 3), nil)

	require.Len(t, values, 3)
	assert.InDelta(t, 60000, values[0], 0.0001)
	assert.Zero(t, values[1])
	assert.InDelta(t, 150000, values[2], 0.0001)
}

func TestMineInvestmentsGroupBound(t *testing.T) {
	timelines := make(map[int64][]model.TimelineItem)
	ids := make([]int64, 12)
	for i := range ids {
		ids[i] = int64(i + 1)
		timelines[ids[i]] = timelineWith("<p>nada</p>")
	}
	fetcher := &fakeTimelineFetcher{timelines: timelines}
	e := NewEnricher(fetcher, 5, 1000)

	values := e.MineInvestments(context.Background(), rawLeads(ids...), nil)

	assert.Len(t, values, 12)
	assert.LessOrEqual(t, fetcher.peak.Load(), int32(5), "no more than one group in flight")
	assert.Len(t, fetcher.calls, 12)
}

func TestMineInvestmentsFailureIsLocal(t *testing.T) {
	fetcher := &fakeTimelineFetcher{
		timelines: map[int64][]model.TimelineItem{
			1: timelineWith("<p>investimento de 80.000</p>"),
			3: timelineWith("<p>investimento de 90.000</p>"),
		},
		failIDs: map[int64]bool{2: true},
	}
	e := NewEnricher(fetcher, 3, 1000)

	values := e.MineInvestments(context.Background(), rawLeads(1, 2, 3), nil)

	assert.InDelta(t, 80000, values[0], 0.0001)
	assert.Zero(t, values[1], "failed timeline degrades to zero")
	assert.InDelta(t, 90000, values[2], 0.0001)
}

func TestMineInvestmentsProgressPerGroup(t *testing.T) {
	timelines := make(map[int64][]model.TimelineItem)
	for id := int64(1); id <= 7; id++ {
		timelines[id] = nil
	}
	fetcher := &fakeTimelineFetcher{timelines: timelines}
	e := NewEnricher(fetcher, 5, 1000)

	var progress []string
	e.MineInvestments(context.Background(), rawLeads(1, 2, 3, 4, 5, 6, 7), func(msg string) {
		progress = append(progress, msg)
	})

	require.Len(t, progress, 2)
	assert.Equal(t, "enriched 5/7 leads", progress[0])
	assert.Equal(t, "enriched 7/7 leads", progress[1])
}

func TestInvestmentFromTimelineFieldPriority(t *testing.T) {
	e := NewEnricher(nil, 5, 1000)

	items := []model.TimelineItem{
		{
			Activity: &model.HTMLFragment{DescriptionHTML: "<p>investimento de 50.000</p>"},
		},
		{
			DescriptionHTML: "<p>investimento de 70.000</p>",
		},
	}
	// First item wins even though its figure sits in the nested activity.
	assert.InDelta(t, 50000, e.investmentFromTimeline(items), 0.0001)

	both := []model.TimelineItem{
		{
			DescriptionHTML: "<p>investimento de 30.000</p>",
			Annotation:      &model.HTMLFragment{DescriptionHTML: "<p>investimento de 99.000</p>"},
		},
	}
	// Direct description outranks the annotation.
	assert.InDelta(t, 30000, e.investmentFromTimeline(both), 0.0001)

	assert.Zero(t, e.investmentFromTimeline(nil))
}

func TestMineInvestmentsEmptyInput(t *testing.T) {
	e := NewEnricher(&fakeTimelineFetcher{}, 5, 1000)
	assert.Empty(t, e.MineInvestments(context.Background(), nil, nil))
}
