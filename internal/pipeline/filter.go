package pipeline

import (
	"strings"

	"github.com/behonest/leadscore-cli/internal/model"
)

// Filter excludes test, duplicate and blacklisted leads before any
// per-lead network call is spent on them.
type Filter struct {
	blacklist map[int64]bool
}

// NewFilter creates a Filter with the given blacklisted lead ids.
func NewFilter(blacklistIDs []int64) *Filter {
	bl := make(map[int64]bool, len(blacklistIDs))
	for _, id := range blacklistIDs {
		bl[id] = true
	}
	return &Filter{blacklist: bl}
}

// Keep reports whether a lead survives filtering.
func (f *Filter) Keep(lead model.RawLead) bool {
	if f.blacklist[lead.ID] {
		return false
	}

	searchText := strings.ToLower(lead.ContactName() + " " + lead.ContactEmail() + " " + lead.Title)
	if strings.Contains(searchText, "teste") {
		return false
	}

	if phone := lead.ContactPhone(); phone != "" && isRepeatedDigits(phone) {
		return false
	}

	origin := strings.ToUpper(lead.OriginName())
	if strings.Contains(origin, "DUPLICADO") || origin == "TESTE" {
		return false
	}

	return true
}

// Apply returns the leads that survive filtering, in their original order.
func (f *Filter) Apply(leads []model.RawLead) []model.RawLead {
	kept := make([]model.RawLead, 0, len(leads))
	for _, lead := range leads {
		if f.Keep(lead) {
			kept = append(kept, lead)
		}
	}
	return kept
}

// isRepeatedDigits reports whether the phone's digits are all the same
// (e.g. "999999999"), the placeholder pattern test records carry.
func isRepeatedDigits(phone string) bool {
	var first rune
	seen := false
	for _, r := range phone {
		if r < '0' || r > '9' {
			continue
		}
		if !seen {
			first = r
			seen = true
			continue
		}
		if r != first {
			return false
		}
	}
	return seen
}
