package request

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/creditcore/internal/models"
)

const yamlRequest = `
company_name: Acme Holdings
periods: ["2023-12-31", "2024-12-31"]
scale: million
raw_statements:
  - canonical_key: revenue
    values:
      "2023-12-31": "1 000"
      "2024-12-31": "1,100.5"
  - canonical_key: finance_costs
    values:
      "2024-12-31": "(25)"
      "2023-12-31": "—"
facts:
  - canonical_key: revenue
    period_end: "2024-12-31"
    value_base: 1200000000
notes:
  n1:
    title: Borrowings
    text: Leverage covenant of 3.0x net debt to EBITDA.
committed_facilities:
  rcf: 250000000
`

const jsonRequest = `{
  "periods": ["2024-12-31"],
  "facts": [
    {"canonical_key": "total_assets", "period_end": "2024-12-31", "value_base": 1000},
    {"canonical_key": "total_equity", "period_end": "2024-12-31", "value_base": 600}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadYAML(t *testing.T) {
	req, err := Load(writeFile(t, "acme.yaml", yamlRequest))
	require.NoError(t, err)

	assert.Equal(t, "Acme Holdings", req.CompanyName)
	assert.Equal(t, []string{"2023-12-31", "2024-12-31"}, req.Periods)
	assert.Len(t, req.RawStatements, 2)
	assert.Equal(t, "Leverage covenant of 3.0x net debt to EBITDA.", req.Notes["n1"].Text)
	assert.Equal(t, 250000000.0, req.CommittedFacilities["rcf"])
}

func TestLoadJSON(t *testing.T) {
	req, err := Load(writeFile(t, "acme.json", jsonRequest))
	require.NoError(t, err)

	require.Len(t, req.Facts, 2)
	assert.Equal(t, "total_assets", req.Facts[0].CanonicalKey)
	require.NotNil(t, req.Facts[0].ValueBase)
	assert.Equal(t, 1000.0, *req.Facts[0].ValueBase)
}

func TestFactsParsesRawAndPrefersExplicit(t *testing.T) {
	req, err := Decode([]byte(yamlRequest), FormatYAML)
	require.NoError(t, err)

	fs := models.NewFactSet(Facts(req), req.Periods)

	rev23, ok := fs.Value("revenue", "2023-12-31")
	require.True(t, ok)
	assert.Equal(t, 1e9, rev23)

	rev24, ok := fs.Value("revenue", "2024-12-31")
	require.True(t, ok)
	assert.Equal(t, 1.2e9, rev24, "explicit fact replaces the parsed raw value")

	fc, ok := fs.Value("finance_costs", "2024-12-31")
	require.True(t, ok)
	assert.Equal(t, -25e6, fc)

	_, ok = fs.Value("finance_costs", "2023-12-31")
	assert.False(t, ok, "a dash is undisclosed, not zero")
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		doc    string
	}{
		{"no periods", FormatJSON, `{"facts": [{"canonical_key": "revenue", "period_end": "2024-12-31", "value_base": 1}]}`},
		{"bad period", FormatJSON, `{"periods": ["31/12/2024"], "facts": [{"canonical_key": "revenue", "period_end": "2024-12-31"}]}`},
		{"fact without key", FormatJSON, `{"periods": ["2024-12-31"], "facts": [{"period_end": "2024-12-31"}]}`},
		{"no facts", FormatJSON, `{"periods": ["2024-12-31"]}`},
		{"unknown field", FormatJSON, `{"periods": ["2024-12-31"], "colour": "red"}`},
		{"negative facility", FormatYAML, "periods: [\"2024-12-31\"]\nfacts:\n  - {canonical_key: revenue, period_end: \"2024-12-31\"}\ncommitted_facilities:\n  rcf: -1\n"},
		{"malformed yaml", FormatYAML, "periods: [\n"},
		{"unknown format", Format("xml"), `<request/>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc), tt.format)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidRequest)
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFromPath("a/b/request.JSON"))
	assert.Equal(t, FormatYAML, FormatFromPath("request.yml"))
	assert.Equal(t, FormatYAML, FormatFromPath("request"))
}
