package pipeline

import (
	"strings"
	"time"

	"github.com/behonest/leadscore-cli/internal/config"
	"github.com/behonest/leadscore-cli/internal/model"
	"github.com/behonest/leadscore-cli/internal/normalize"
)

// Calculator computes the three normalized indices behind the composite
// score. Franchise city lists and the investment cap come from config.
type Calculator struct {
	citiesByState map[string][]string
	investmentCap float64
}

// minCityMatchLen guards the containment fallback against short
// false-positive substrings.
const minCityMatchLen = 5

// NewCalculator creates a Calculator from the franchise allow-lists and the
// investment value that maps to an index of 1.0.
func NewCalculator(franchise config.FranchiseConfig, investmentCap float64) *Calculator {
	fold := func(cities []string) []string {
		out := make([]string, 0, len(cities))
		for _, c := range cities {
			out = append(out, normalize.Fold(c))
		}
		return out
	}
	return &Calculator{
		citiesByState: map[string][]string{
			"MG": fold(franchise.CitiesMG),
			"GO": fold(franchise.CitiesGO),
		},
		investmentCap: investmentCap,
	}
}

// LocationIndex returns 1 when the lead sits in franchise territory, else 0.
// The whole Distrito Federal counts; MG and GO require a city on the
// state's allow-list.
func (c *Calculator) LocationIndex(state, city string) float64 {
	switch strings.ToUpper(strings.TrimSpace(state)) {
	case "DF":
		return 1
	case "MG":
		return c.matchCity("MG", city)
	case "GO":
		return c.matchCity("GO", city)
	default:
		return 0
	}
}

func (c *Calculator) matchCity(state, city string) float64 {
	folded := normalize.Fold(city)
	if folded == "" {
		return 0
	}
	for _, entry := range c.citiesByState[state] {
		if folded == entry {
			return 1
		}
		// Containment catches variations like "Goiânia -" as long as the
		// allow-list entry is long enough to be unambiguous.
		if len(entry) >= minCityMatchLen && strings.Contains(folded, entry) {
			return 1
		}
	}
	return 0
}

// InvestmentIndex maps an investment value to [0,1] linearly against the
// cap. Non-positive values map to exactly 0.
func (c *Calculator) InvestmentIndex(value float64) float64 {
	if value <= 0 {
		return 0
	}
	idx := value / c.investmentCap
	if idx > 1 {
		return 1
	}
	return idx
}

// TimeIndex places a creation date within the batch's date range: the most
// recent date maps to 1, the oldest to 0. A degenerate single-date batch
// maps every lead to 1.
func TimeIndex(date, minDate, maxDate time.Time) float64 {
	if maxDate.Equal(minDate) {
		return 1
	}
	frac := float64(date.Sub(minDate)) / float64(maxDate.Sub(minDate))
	if frac < 0 {
		return 0
	}
	if frac > 1 {
		return 1
	}
	return frac
}

// DateRange finds the min and max parseable creation dates in a batch.
// Leads with absent or malformed dates are excluded here and get a time
// index of 0 later. ok is false when no lead has a parseable date.
func DateRange(leads []model.EnrichedLead) (minDate, maxDate time.Time, ok bool) {
	for _, lead := range leads {
		d, err := normalize.ParseDateBR(lead.CreatedAt)
		if err != nil {
			continue
		}
		if !ok {
			minDate, maxDate = d, d
			ok = true
			continue
		}
		if d.Before(minDate) {
			minDate = d
		}
		if d.After(maxDate) {
			maxDate = d
		}
	}
	return minDate, maxDate, ok
}
