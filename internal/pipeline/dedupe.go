package pipeline

import (
	"strings"

	"github.com/behonest/leadscore-cli/internal/model"
)

// DedupeByPhone collapses leads sharing the same phone (digits only),
// keeping the first occurrence. Leads without a phone are all kept: an
// empty phone is no evidence of duplication.
func DedupeByPhone(leads []model.EnrichedLead) []model.EnrichedLead {
	seen := make(map[string]bool, len(leads))
	out := make([]model.EnrichedLead, 0, len(leads))
	for _, lead := range leads {
		key := digitsOnly(lead.Phone)
		if key != "" {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, lead)
	}
	return out
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
