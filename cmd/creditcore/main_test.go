package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/creditcore/internal/models"
)

func TestWriteResultToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	result := &models.AnalysisResult{
		AnalysisID: "run_test",
		Status:     models.StatusWarn,
		Periods:    []string{"2024-12-31"},
	}

	require.NoError(t, writeResult(path, result))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded models.AnalysisResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run_test", decoded.AnalysisID)
	assert.Equal(t, models.StatusWarn, decoded.Status)
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}

func TestConfigPathsAccumulate(t *testing.T) {
	var paths configPaths
	require.NoError(t, paths.Set("base.toml"))
	require.NoError(t, paths.Set("override.toml"))

	assert.Equal(t, configPaths{"base.toml", "override.toml"}, paths)
	assert.Equal(t, "[base.toml override.toml]", paths.String())
}
