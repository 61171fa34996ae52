// Package parser turns raw statement strings, exactly as printed, into scaled numeric facts.
// Nothing enters ratios or validation unless it passes this deterministic parse.
package parser

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/ternarybob/creditcore/internal/models"
)

// Scale multipliers keyed by lower-case literal
var scaleFactors = map[string]float64{
	"units":    1,
	"thousand": 1e3,
	"million":  1e6,
	"billion":  1e9,
}

// Dash glyphs that stand for "not disclosed" when they are the whole value
var dashGlyphs = map[string]bool{
	"-":      true,
	"\u2014": true, // em dash
	"\u2013": true, // en dash
}

var spaceVariants = strings.NewReplacer(
	"\u00a0", " ", // no-break space
	"\u2009", " ", // thin space
	"\u202f", " ", // narrow no-break space
)

var numericBody = regexp.MustCompile(`^[0-9.]+$`)

// ParseRawValueString parses a raw amount. Blank, dash, and unparseable input
// all return nil; a nil result is "not disclosed" and is distinct from zero.
//
// Rules, in order:
//   - blank -> nil
//   - a lone dash glyph -> nil
//   - NFKC normalize, collapse no-break/thin/narrow spaces to ASCII space
//   - (value) -> negative
//   - strip spaces and commas (thousands separators)
//   - leading or trailing minus -> negative; both -> nil
//   - anything but digits and one decimal point -> nil
//   - a magnitude too large for float64 -> nil
func ParseRawValueString(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if dashGlyphs[s] || dashGlyphs[strings.ReplaceAll(s, " ", "")] {
		return nil
	}

	s = norm.NFKC.String(s)
	s = spaceVariants.Replace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") && len(s) >= 2 {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", "")

	leading, trailing := strings.HasPrefix(s, "-"), strings.HasSuffix(s, "-")
	switch {
	case leading && trailing:
		return nil
	case leading:
		negative = true
		s = s[1:]
	case trailing:
		negative = true
		s = s[:len(s)-1]
	}

	if s == "" || !numericBody.MatchString(s) || strings.Count(s, ".") > 1 || s == "." {
		return nil
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	s = strings.TrimSuffix(s, ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	if negative {
		d = d.Neg()
	}
	v := d.InexactFloat64()
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// ScaleFactorFromLiteral maps units/thousand/million/billion (case-insensitive)
// to its multiplier. Unknown or empty literals scale by 1.
func ScaleFactorFromLiteral(scale string) float64 {
	if f, ok := scaleFactors[strings.ToLower(strings.TrimSpace(scale))]; ok {
		return f
	}
	return 1
}

// ParseAndScale parses raw[k] for every k in keys and multiplies by scaleFactor.
// Missing and unparseable entries stay nil.
func ParseAndScale(raw map[string]string, keys []string, scaleFactor float64) map[string]*float64 {
	out := make(map[string]*float64, len(keys))
	for _, k := range keys {
		rawValue, ok := raw[k]
		if !ok {
			out[k] = nil
			continue
		}
		parsed := ParseRawValueString(rawValue)
		if parsed == nil {
			out[k] = nil
			continue
		}
		scaled := *parsed * scaleFactor
		if math.IsInf(scaled, 0) {
			out[k] = nil
			continue
		}
		out[k] = &scaled
	}
	return out
}

// BuildFacts converts raw statement rows into facts in base units.
// Rows keep one fact per period they carry, including undisclosed (nil) values,
// so provenance can show what was read.
func BuildFacts(rows []models.RawStatementRow, scaleLiteral string) []models.Fact {
	factor := ScaleFactorFromLiteral(scaleLiteral)
	var facts []models.Fact

	for _, row := range rows {
		periods := make([]string, 0, len(row.Values))
		for p := range row.Values {
			periods = append(periods, p)
		}
		sort.Strings(periods)

		scaled := ParseAndScale(row.Values, periods, factor)
		for _, p := range periods {
			facts = append(facts, models.Fact{
				CanonicalKey:  row.CanonicalKey,
				PeriodEnd:     p,
				ValueBase:     scaled[p],
				ValueOriginal: row.Values[p],
				Scale:         scaleLiteral,
				SourceRefs:    row.SourceRefs,
			})
		}
	}
	return facts
}
