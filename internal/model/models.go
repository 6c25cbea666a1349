package model

import "time"

// Quote is a single price observation for a token on one DEX. Prices are
// denominated in USDC per whole token.
type Quote struct {
	Dex       string
	TokenMint string
	Price     float64
	FetchedAt time.Time
}

// Opportunity is a detected cross-DEX spread that clears the profit
// threshold. It has not been acted on yet.
type Opportunity struct {
	TokenMint     string
	BuyDex        string
	BuyPrice      float64
	SellDex       string
	SellPrice     float64
	ProfitPercent float64
	DetectedAt    time.Time
}

// Trade is one executed (or simulated) buy-low/sell-high round trip.
// Amount and Profit are in SOL. Signature is empty for simulated trades.
// Trades are immutable once recorded.
type Trade struct {
	ID            string    `db:"id"`
	TokenMint     string    `db:"token_mint"`
	BuyDex        string    `db:"buy_dex"`
	SellDex       string    `db:"sell_dex"`
	BuyPrice      float64   `db:"buy_price"`
	SellPrice     float64   `db:"sell_price"`
	Amount        float64   `db:"amount"`
	Profit        float64   `db:"profit"`
	ProfitPercent float64   `db:"profit_percent"`
	ExecutedAt    time.Time `db:"executed_at"`
	Simulated     bool      `db:"simulated"`
	Signature     string    `db:"signature"`
}
