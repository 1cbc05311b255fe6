// Package normalize holds the pure text utilities shared by the enrichment
// and indexing stages: diacritic-insensitive folding, HTML-to-text
// conversion and the Brazilian display date format.
package normalize

import (
	"strings"
	"time"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldChain decomposes, strips combining marks and recomposes.
var foldChain = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowers, trims and strips diacritics: "Goiânia " -> "goiania".
// Used for comparisons only, never for display.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	folded, _, err := transform.String(foldChain, s)
	if err != nil {
		folded = s
	}
	return strings.TrimSpace(strings.ToLower(folded))
}

// HTMLText returns the visible text of an HTML fragment: tags are dropped,
// entities decoded and text nodes joined with single spaces.
func HTMLText(fragment string) string {
	if fragment == "" {
		return ""
	}
	tz := html.NewTokenizer(strings.NewReader(fragment))
	var parts []string
	for {
		tt := tz.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.TextToken {
			continue
		}
		if text := strings.TrimSpace(html.UnescapeString(string(tz.Text()))); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// brDateLayout is the DD/MM/YYYY display format the dataset carries dates in.
const brDateLayout = "02/01/2006"

// FormatDateBR converts an ISO timestamp (YYYY-MM-DDTHH:MM:SSZ) to
// DD/MM/YYYY. Malformed input is returned unchanged, mirroring how the
// dataset keeps whatever the source delivered.
func FormatDateBR(iso string) string {
	if iso == "" {
		return ""
	}
	datePart, _, _ := strings.Cut(iso, "T")
	fields := strings.Split(datePart, "-")
	if len(fields) != 3 || len(fields[0]) != 4 {
		return iso
	}
	return fields[2] + "/" + fields[1] + "/" + fields[0]
}

// ParseDateBR parses a DD/MM/YYYY date.
func ParseDateBR(s string) (time.Time, error) {
	t, err := time.Parse(brDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "normalize: parse date %q", s)
	}
	return t, nil
}
