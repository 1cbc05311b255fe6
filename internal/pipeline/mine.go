package pipeline

import (
	"regexp"
	"strings"

	"github.com/behonest/leadscore-cli/internal/money"
)

// investmentKeywords gates the scan: a text without any of these never
// carries an investment figure worth mining.
var investmentKeywords = []string{"investimento", "valor disponivel", "capital"}

// keywordAnchors locate where the figure is mentioned; "valor" alone anchors
// both "valor disponivel" and "valor de investimento" phrasings.
var keywordAnchors = []string{"investimento", "valor", "capital"}

var numberPattern = regexp.MustCompile(`[\d.,]+`)

const (
	// anchorWindow is how far past the keyword the figure is searched for.
	anchorWindow = 80
	// scaleWindow is how far past a number the "mil" scale word may sit.
	scaleWindow = 20
)

// ExtractInvestment mines an investment-capacity figure from the plain text
// of a timeline entry. Candidate numbers after the first keyword mention are
// tried left to right; "60 mil" style values are scaled to thousands; the
// first value of at least minValue wins. Returns 0 when nothing qualifies.
func ExtractInvestment(text string, minValue float64) float64 {
	lower := strings.ToLower(text)

	gated := false
	for _, kw := range investmentKeywords {
		if strings.Contains(lower, kw) {
			gated = true
			break
		}
	}
	if !gated {
		return 0
	}

	idx := -1
	for _, anchor := range keywordAnchors {
		if idx = strings.Index(lower, anchor); idx >= 0 {
			break
		}
	}
	if idx < 0 {
		return 0
	}

	window := lower[idx:min(idx+anchorWindow, len(lower))]

	for _, loc := range numberPattern.FindAllStringIndex(window, -1) {
		val := money.ParseAmount(window[loc[0]:loc[1]])

		suffix := window[loc[1]:min(loc[1]+scaleWindow, len(window))]
		if val < 1000 && (strings.Contains(suffix, "mil") || strings.Contains(suffix, "mi ")) {
			val *= 1000
		}

		if val >= minValue {
			return val
		}
	}
	return 0
}
