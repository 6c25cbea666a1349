package arbitrage

import (
	"log/slog"
	"sort"
	"time"

	"solarb/internal/config"
	"solarb/internal/model"
)

// Detector holds the logic for identifying profitable cross-DEX spreads.
type Detector struct {
	logger *slog.Logger
	cfg    config.TradingConfig
}

// NewDetector creates a new instance of the Detector.
func NewDetector(logger *slog.Logger, cfg config.TradingConfig) *Detector {
	return &Detector{logger: logger, cfg: cfg}
}

type dexPrice struct {
	dex   string
	price float64
}

// Detect returns the widest-spread opportunity for one token, or nil when
// fewer than two DEXes answered or the spread does not strictly exceed the
// profit threshold.
func (d *Detector) Detect(tokenMint string, prices map[string]float64) *model.Opportunity {
	opps := d.DetectAll(tokenMint, prices)
	if len(opps) == 0 {
		return nil
	}
	return &opps[0]
}

// DetectAll returns every qualifying opportunity for one token, widest
// spread first. In the default mode only the global extremes are compared
// and at most one opportunity is produced; with CompareAllPairs every
// cheaper DEX is paired against the most expensive one.
func (d *Detector) DetectAll(tokenMint string, prices map[string]float64) []model.Opportunity {
	valid := make([]dexPrice, 0, len(prices))
	for dexName, price := range prices {
		if price <= 0 {
			continue
		}
		valid = append(valid, dexPrice{dex: dexName, price: price})
	}

	// Need at least two DEXes with valid prices to compare.
	if len(valid) < 2 {
		return nil
	}

	sort.Slice(valid, func(i, j int) bool { return valid[i].price < valid[j].price })

	sellTo := valid[len(valid)-1]
	buyCandidates := valid[:len(valid)-1]
	if !d.cfg.CompareAllPairs {
		buyCandidates = valid[:1]
	}

	var opps []model.Opportunity
	for _, buyFrom := range buyCandidates {
		profitPercent := (sellTo.price - buyFrom.price) / buyFrom.price * 100

		// Strictly above threshold: a spread exactly at threshold does not
		// qualify.
		if profitPercent <= d.cfg.MinProfitThreshold {
			continue
		}

		opps = append(opps, model.Opportunity{
			TokenMint:     tokenMint,
			BuyDex:        buyFrom.dex,
			BuyPrice:      buyFrom.price,
			SellDex:       sellTo.dex,
			SellPrice:     sellTo.price,
			ProfitPercent: profitPercent,
			DetectedAt:    time.Now(),
		})

		d.logger.Info("arbitrage opportunity found",
			"mint", tokenMint,
			"buyDex", buyFrom.dex,
			"buyPrice", buyFrom.price,
			"sellDex", sellTo.dex,
			"sellPrice", sellTo.price,
			"profitPercent", profitPercent,
		)
	}
	return opps
}

// Rank orders opportunities by profit percentage descending and keeps at
// most MaxTradesPerScan of them. This is a rate-limiting policy for one scan
// cycle, not an accuracy requirement.
func (d *Detector) Rank(opps []model.Opportunity) []model.Opportunity {
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].ProfitPercent > opps[j].ProfitPercent
	})
	if d.cfg.MaxTradesPerScan > 0 && len(opps) > d.cfg.MaxTradesPerScan {
		opps = opps[:d.cfg.MaxTradesPerScan]
	}
	return opps
}
