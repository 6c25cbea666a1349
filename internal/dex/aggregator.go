package dex

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Aggregator fans one price query out to every enabled DEX client
// concurrently and collects the successful answers.
type Aggregator struct {
	clients []Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewAggregator creates an Aggregator over the given clients with a
// per-quote timeout.
func NewAggregator(clients []Client, timeout time.Duration, logger *slog.Logger) *Aggregator {
	return &Aggregator{clients: clients, timeout: timeout, logger: logger}
}

// Collect queries all clients for the token and returns dex name → price for
// the subset that answered. It blocks until every client has settled.
// Individual failures are expected and only logged; an empty result means no
// comparison is possible for this token.
func (a *Aggregator) Collect(ctx context.Context, tokenMint string) map[string]float64 {
	var (
		mu     sync.Mutex
		prices = make(map[string]float64)
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, client := range a.clients {
		g.Go(func() error {
			qctx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			quote, err := client.Quote(qctx, tokenMint)
			if err != nil {
				a.logger.Debug("quote failed", "dex", client.Name(), "mint", tokenMint, "error", err)
				return nil
			}

			mu.Lock()
			prices[quote.Dex] = quote.Price
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // quote failures are swallowed above, never returned

	if len(prices) == 0 {
		a.logger.Warn("no dex returned a price", "mint", tokenMint)
	}
	return prices
}
