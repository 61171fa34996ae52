package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/creditcore/internal/models"
)

func TestParseRawValueString(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    float64
		wantNil bool
	}{
		{name: "bracketed negative with separators", raw: "(1,234.50)", want: -1234.50},
		{name: "em dash is not disclosed", raw: "\u2014", wantNil: true},
		{name: "en dash is not disclosed", raw: "\u2013", wantNil: true},
		{name: "hyphen is not disclosed", raw: "-", wantNil: true},
		{name: "padded hyphen is not disclosed", raw: "  -  ", wantNil: true},
		{name: "no-break space thousands separator", raw: "1\u00a0234", want: 1234},
		{name: "thin space thousands separator", raw: "12\u2009345\u2009678", want: 12345678},
		{name: "narrow no-break space", raw: "9\u202f001", want: 9001},
		{name: "not applicable", raw: "N/A", wantNil: true},
		{name: "blank", raw: "   ", wantNil: true},
		{name: "empty", raw: "", wantNil: true},
		{name: "leading minus", raw: "-42.5", want: -42.5},
		{name: "plain integer", raw: "100", want: 100},
		{name: "zero is a value", raw: "0", want: 0},
		{name: "two decimal points", raw: "1.2.3", wantNil: true},
		{name: "currency symbol", raw: "R1 000", wantNil: true},
		{name: "bare point", raw: ".", wantNil: true},
		{name: "leading point", raw: ".5", want: 0.5},
		{name: "fullwidth digits normalize", raw: "\uff11\uff12\uff13", want: 123},
		{name: "bracketed with inner spaces", raw: "( 2 500 )", want: -2500},
		{name: "trailing minus", raw: "1,250-", want: -1250},
		{name: "leading and trailing minus", raw: "-25-", wantNil: true},
		{name: "double hyphen", raw: "--", wantNil: true},
		{name: "overflows float64", raw: strings.Repeat("9", 400), wantNil: true},
		{name: "long but finite", raw: "1" + strings.Repeat("0", 300), want: 1e300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRawValueString(tt.raw)
			if tt.wantNil {
				assert.Nil(t, got, "ParseRawValueString(%q)", tt.raw)
				return
			}
			require.NotNil(t, got, "ParseRawValueString(%q)", tt.raw)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}
}

func TestScaleFactorFromLiteral(t *testing.T) {
	tests := []struct {
		literal string
		want    float64
	}{
		{"Million", 1e6},
		{"million", 1e6},
		{" THOUSAND ", 1e3},
		{"billion", 1e9},
		{"units", 1},
		{"lakh", 1},
		{"", 1},
	}

	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			assert.Equal(t, tt.want, ScaleFactorFromLiteral(tt.literal))
		})
	}
}

func TestParseAndScale(t *testing.T) {
	raw := map[string]string{
		"2023": "1,000",
		"2024": "\u2014",
		"2025": "garbage",
	}

	got := ParseAndScale(raw, []string{"2023", "2024", "2025", "2026"}, 1e3)

	require.Len(t, got, 4)
	require.NotNil(t, got["2023"])
	assert.Equal(t, 1e6, *got["2023"])
	assert.Nil(t, got["2024"], "dash must stay nil, never zero")
	assert.Nil(t, got["2025"], "unparseable must stay nil")
	assert.Nil(t, got["2026"], "missing key must stay nil")
}

func TestParseAndScaleRejectsOverflow(t *testing.T) {
	got := ParseAndScale(map[string]string{"2024": "1" + strings.Repeat("0", 305)}, []string{"2024"}, 1e9)
	assert.Nil(t, got["2024"])
}

func TestBuildFacts(t *testing.T) {
	rows := []models.RawStatementRow{
		{
			CanonicalKey: "revenue",
			Values:       map[string]string{"2024-12-31": "1 500", "2023-12-31": "(20)"},
			SourceRefs:   []models.SourceRef{{DocumentID: "afs-2024", Page: 12}},
		},
		{
			CanonicalKey: "goodwill",
			Values:       map[string]string{"2024-12-31": "-"},
		},
	}

	facts := BuildFacts(rows, "million")
	require.Len(t, facts, 3)

	assert.Equal(t, "2023-12-31", facts[0].PeriodEnd)
	require.NotNil(t, facts[0].ValueBase)
	assert.Equal(t, -20e6, *facts[0].ValueBase)
	assert.Equal(t, "(20)", facts[0].ValueOriginal)

	assert.Equal(t, 1500e6, *facts[1].ValueBase)
	assert.Equal(t, 12, facts[1].SourceRefs[0].Page)

	assert.Equal(t, "goodwill", facts[2].CanonicalKey)
	assert.Nil(t, facts[2].ValueBase)
}
