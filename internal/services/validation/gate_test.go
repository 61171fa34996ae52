package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/creditcore/internal/models"
)

const period = "2024-12-31"

func fact(key string, v float64) models.Fact {
	return models.Fact{CanonicalKey: key, PeriodEnd: period, ValueBase: &v}
}

func TestCheckBalanceSheetTie(t *testing.T) {
	tests := []struct {
		name        string
		assets      float64
		equity      float64
		liabilities float64
		wantOK      bool
		wantDiff    float64
	}{
		{name: "exact tie", assets: 1000, equity: 600, liabilities: 400, wantOK: true, wantDiff: 0},
		{name: "within tolerance", assets: 1000, equity: 600, liabilities: 400.005, wantOK: true, wantDiff: 0.005},
		{name: "short by 100", assets: 1000, equity: 600, liabilities: 300, wantOK: false, wantDiff: 100},
		{name: "over by 50", assets: 1000, equity: 650, liabilities: 400, wantOK: false, wantDiff: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckBalanceSheetTie(tt.assets, tt.equity, tt.liabilities, 0.01)
			assert.Equal(t, tt.wantOK, got.IsBalanced)
			assert.InDelta(t, tt.wantDiff, got.Difference, 1e-9)
		})
	}
}

func TestGateRun(t *testing.T) {
	gate := NewGate(arbor.NewLogger(), DefaultTolerancePolicy())

	t.Run("balanced snapshot passes", func(t *testing.T) {
		facts := models.NewFactSet([]models.Fact{
			fact("total_assets", 1000),
			fact("total_equity", 600),
			fact("total_liabilities", 400),
		}, []string{period})

		result := gate.Run(facts, nil)
		assert.Equal(t, models.StatusPass, result.Status)
		assert.True(t, result.Passed())
		assert.Empty(t, result.Failures)
		assert.Contains(t, result.Checks, CheckBalanceTie)
	})

	t.Run("unbalanced snapshot fails with the difference", func(t *testing.T) {
		facts := models.NewFactSet([]models.Fact{
			fact("total_assets", 1000),
			fact("total_equity", 600),
			fact("total_liabilities", 300),
		}, []string{period})

		result := gate.Run(facts, nil)
		assert.Equal(t, models.StatusFail, result.Status)
		assert.False(t, result.Passed())
		require.Len(t, result.Failures, 1)

		item := result.Failures[0]
		assert.Equal(t, CheckBalanceTie, item.Check)
		assert.Equal(t, period, item.Period)
		require.NotNil(t, item.Difference)
		assert.InDelta(t, 100.0, *item.Difference, 1e-9)
		assert.Contains(t, item.Message, "diff=100")
	})

	t.Run("missing totals only warn", func(t *testing.T) {
		facts := models.NewFactSet([]models.Fact{
			fact("total_assets", 1000),
		}, []string{period})

		result := gate.Run(facts, nil)
		assert.Equal(t, models.StatusWarn, result.Status)
		assert.True(t, result.Passed())
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, CheckBalanceTie, result.Warnings[0].Check)
	})

	t.Run("gross profit mismatch warns", func(t *testing.T) {
		facts := models.NewFactSet([]models.Fact{
			fact("total_assets", 1000),
			fact("total_equity", 600),
			fact("total_liabilities", 400),
			fact("revenue", 500),
			fact("cost_of_sales", -300),
			fact("gross_profit", 150),
		}, []string{period})

		result := gate.Run(facts, nil)
		assert.Equal(t, models.StatusWarn, result.Status)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, CheckGrossProfit, result.Warnings[0].Check)
		assert.InDelta(t, 50.0, *result.Warnings[0].Difference, 1e-9)
	})

	t.Run("cash flow reconciliation warns", func(t *testing.T) {
		facts := models.NewFactSet([]models.Fact{
			fact("total_assets", 1000),
			fact("total_equity", 600),
			fact("total_liabilities", 400),
			fact("net_cfo", 120),
			fact("net_cfi", -80),
			fact("net_cff", -20),
			fact("net_change_in_cash", 30),
		}, []string{period})

		result := gate.Run(facts, nil)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, CheckCashFlow, result.Warnings[0].Check)
	})

	t.Run("rejected keys warn", func(t *testing.T) {
		facts := models.NewFactSet([]models.Fact{
			fact("total_assets", 1000),
			fact("total_equity", 600),
			fact("total_liabilities", 400),
		}, []string{period})

		result := gate.Run(facts, []string{"made_up_key"})
		assert.Equal(t, models.StatusWarn, result.Status)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, CheckTaxonomy, result.Warnings[0].Check)
		assert.Contains(t, result.Warnings[0].Message, "made_up_key")
	})

	t.Run("failure outranks warnings", func(t *testing.T) {
		facts := models.NewFactSet([]models.Fact{
			fact("total_assets", 1000),
			fact("total_equity", 600),
			fact("total_liabilities", 300),
		}, []string{period})

		result := gate.Run(facts, []string{"made_up_key"})
		assert.Equal(t, models.StatusFail, result.Status)
	})
}

func TestGateUsesConfiguredTolerance(t *testing.T) {
	facts := models.NewFactSet([]models.Fact{
		fact("total_assets", 1000),
		fact("total_equity", 600),
		fact("total_liabilities", 399.5),
	}, []string{period})

	strict := NewGate(arbor.NewLogger(), DefaultTolerancePolicy())
	assert.Equal(t, models.StatusFail, strict.Run(facts, nil).Status)

	loose := NewGate(arbor.NewLogger(), TolerancePolicy{Balance: 1, Subtotal: 1})
	assert.Equal(t, models.StatusPass, loose.Run(facts, nil).Status)
}
