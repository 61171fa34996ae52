package sections

import (
	"github.com/ternarybob/creditcore/internal/models"
)

const (
	fy23 = "2023-12-31"
	fy24 = "2024-12-31"
)

type row map[string]float64

// factSet builds a snapshot from period -> key -> value rows
func factSet(byPeriod map[string]row) *models.FactSet {
	var facts []models.Fact
	var periods []string
	for p, r := range byPeriod {
		periods = append(periods, p)
		for k, v := range r {
			v := v
			facts = append(facts, models.Fact{CanonicalKey: k, PeriodEnd: p, ValueBase: &v})
		}
	}
	return models.NewFactSet(facts, periods)
}

// balanceSheet is a single-period snapshot with debt, leases and working capital
func balanceSheet() row {
	return row{
		KeyRevenue:             1000,
		KeyOperatingProfit:     100,
		KeyDepreciation:        20,
		KeyFinanceCosts:        -25,
		KeyCash:                60,
		KeyTradeReceivables:    100,
		KeyOtherReceivables:    20,
		KeyInventories:         70,
		KeyTradePayables:       80,
		KeyShortTermBorrowings: 50,
		KeyCurrentPortionLTD:   10,
		KeyLongTermBorrowings:  200,
		KeyLeaseCurrent:        10,
		KeyLeaseNonCurrent:     40,
		KeyTotalEquity:         500,
		KeyTotalAssets:         1000,
		KeyNetCFO:              90,
		KeyCapex:               -30,
	}
}

// twoYears is a growing business over two periods
func twoYears() map[string]row {
	return map[string]row{
		fy23: {
			KeyRevenue:         1000,
			KeyOperatingProfit: 80,
			KeyDepreciation:    20,
			KeyProfitAfterTax:  50,
			KeyNetCFO:          70,
		},
		fy24: {
			KeyRevenue:         1100,
			KeyOperatingProfit: 100,
			KeyDepreciation:    20,
			KeyProfitAfterTax:  60,
			KeyNetCFO:          90,
			KeyCapex:           -30,
		},
	}
}

func note(id, text string) models.Note {
	return models.Note{ID: id, Text: text}
}
