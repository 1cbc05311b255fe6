package pipeline

import (
	"github.com/behonest/leadscore-cli/internal/config"
	"github.com/behonest/leadscore-cli/internal/model"
)

// Score combines the three indices into the composite score. The weights
// are fixed business constants carried in config.
func Score(location, investment, recency float64, w config.WeightsConfig) float64 {
	return location*w.Location + investment*w.Investment + recency*w.Recency
}

// Classify maps a score to its tier. Thresholds are checked in descending
// order; each lower bound is inclusive, so a score sitting exactly on a
// boundary lands in the higher tier.
func Classify(score float64, th config.ThresholdsConfig) model.Tier {
	switch {
	case score >= th.MQLPlus:
		return model.TierMQLPlus
	case score >= th.MQL:
		return model.TierMQL
	case score >= th.LeadPlus:
		return model.TierLeadPlus
	case score >= th.Lead:
		return model.TierLead
	default:
		return model.TierDisqualified
	}
}
