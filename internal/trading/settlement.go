package trading

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"solarb/internal/model"
)

// StubSettler stands in for the venue-pair swap. It emulates settlement
// latency and fabricates a reference; real on-chain settlement plugs in
// behind the Settler interface.
type StubSettler struct {
	logger  *slog.Logger
	latency time.Duration
}

// NewStubSettler creates a StubSettler with the given simulated latency.
func NewStubSettler(logger *slog.Logger, latency time.Duration) *StubSettler {
	return &StubSettler{logger: logger, latency: latency}
}

// Settle waits out the configured latency and returns a fabricated
// settlement reference.
func (s *StubSettler) Settle(ctx context.Context, opp model.Opportunity, amount, maxSlippage float64) (string, error) {
	s.logger.Info("settling round trip",
		"mint", opp.TokenMint,
		"buyDex", opp.BuyDex,
		"sellDex", opp.SellDex,
		"amount", amount,
		"maxSlippage", maxSlippage,
	)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(s.latency):
	}
	return "stub-" + uuid.NewString(), nil
}
