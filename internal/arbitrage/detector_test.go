package arbitrage

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarb/internal/config"
	"solarb/internal/model"
)

const testMint = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

func newDetector(cfg config.TradingConfig) *Detector {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	return NewDetector(logger, cfg)
}

func TestDetector_Detect(t *testing.T) {
	d := newDetector(config.TradingConfig{MinProfitThreshold: 2.0, MaxTradesPerScan: 3})

	t.Run("widest spread across three dexes", func(t *testing.T) {
		opp := d.Detect(testMint, map[string]float64{
			"jupiter": 1.00,
			"raydium": 1.03,
			"orca":    0.98,
		})
		require.NotNil(t, opp)
		assert.Equal(t, "orca", opp.BuyDex)
		assert.InDelta(t, 0.98, opp.BuyPrice, 1e-9)
		assert.Equal(t, "raydium", opp.SellDex)
		assert.InDelta(t, 1.03, opp.SellPrice, 1e-9)
		assert.InDelta(t, 5.102, opp.ProfitPercent, 0.001)
		assert.LessOrEqual(t, opp.BuyPrice, opp.SellPrice)
		assert.NotEqual(t, opp.BuyDex, opp.SellDex)
	})

	t.Run("below threshold", func(t *testing.T) {
		opp := d.Detect(testMint, map[string]float64{"jupiter": 1.00, "raydium": 1.01})
		assert.Nil(t, opp)
	})

	t.Run("exactly at threshold does not qualify", func(t *testing.T) {
		opp := d.Detect(testMint, map[string]float64{"jupiter": 1.00, "raydium": 1.02})
		assert.Nil(t, opp)
	})

	t.Run("single price means no comparison", func(t *testing.T) {
		opp := d.Detect(testMint, map[string]float64{"jupiter": 1.00})
		assert.Nil(t, opp)
	})

	t.Run("empty map", func(t *testing.T) {
		assert.Nil(t, d.Detect(testMint, nil))
	})

	t.Run("non-positive prices are discarded", func(t *testing.T) {
		opp := d.Detect(testMint, map[string]float64{"jupiter": 0, "raydium": -3, "orca": 1.0})
		assert.Nil(t, opp)
	})
}

func TestDetector_DetectAll(t *testing.T) {
	prices := map[string]float64{
		"jupiter": 1.00,
		"raydium": 1.10,
		"orca":    0.95,
	}

	t.Run("extremes mode yields at most one opportunity", func(t *testing.T) {
		d := newDetector(config.TradingConfig{MinProfitThreshold: 2.0})
		opps := d.DetectAll(testMint, prices)
		require.Len(t, opps, 1)
		assert.Equal(t, "orca", opps[0].BuyDex)
		assert.Equal(t, "raydium", opps[0].SellDex)
	})

	t.Run("all-pairs mode pairs each cheaper dex with the most expensive", func(t *testing.T) {
		d := newDetector(config.TradingConfig{MinProfitThreshold: 2.0, CompareAllPairs: true})
		opps := d.DetectAll(testMint, prices)
		require.Len(t, opps, 2)
		assert.Equal(t, "orca", opps[0].BuyDex)
		assert.Equal(t, "jupiter", opps[1].BuyDex)
		for _, opp := range opps {
			assert.Equal(t, "raydium", opp.SellDex)
			assert.Greater(t, opp.ProfitPercent, 2.0)
		}
	})
}

func TestDetector_Rank(t *testing.T) {
	d := newDetector(config.TradingConfig{MaxTradesPerScan: 2})

	opps := []model.Opportunity{
		{TokenMint: "a", ProfitPercent: 1.2},
		{TokenMint: "b", ProfitPercent: 8.4},
		{TokenMint: "c", ProfitPercent: 3.3},
	}

	ranked := d.Rank(opps)
	require.Len(t, ranked, 2)
	assert.Equal(t, "b", ranked[0].TokenMint)
	assert.Equal(t, "c", ranked[1].TokenMint)
}
