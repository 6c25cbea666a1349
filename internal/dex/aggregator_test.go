package dex

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"solarb/internal/model"
)

type stubClient struct {
	name  string
	price float64
	err   error
	delay time.Duration
}

func (s *stubClient) Name() string { return s.name }

func (s *stubClient) Quote(ctx context.Context, tokenMint string) (model.Quote, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return model.Quote{}, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	if s.err != nil {
		return model.Quote{}, s.err
	}
	return model.Quote{Dex: s.name, TokenMint: tokenMint, Price: s.price, FetchedAt: time.Now()}, nil
}

func TestAggregator_Collect(t *testing.T) {
	t.Run("returns only successful quotes", func(t *testing.T) {
		agg := NewAggregator([]Client{
			&stubClient{name: "jupiter", price: 1.00},
			&stubClient{name: "raydium", price: 0.98},
			&stubClient{name: "orca", err: ErrUnavailable},
		}, time.Second, testLogger())

		prices := agg.Collect(context.Background(), testMint)
		assert.Equal(t, map[string]float64{"jupiter": 1.00, "raydium": 0.98}, prices)
	})

	t.Run("single responder yields single entry", func(t *testing.T) {
		agg := NewAggregator([]Client{
			&stubClient{name: "jupiter", price: 1.00},
			&stubClient{name: "raydium", err: ErrUnavailable},
		}, time.Second, testLogger())

		prices := agg.Collect(context.Background(), testMint)
		assert.Len(t, prices, 1)
	})

	t.Run("all failed yields empty map", func(t *testing.T) {
		agg := NewAggregator([]Client{
			&stubClient{name: "jupiter", err: ErrUnavailable},
			&stubClient{name: "raydium", err: ErrUnavailable},
		}, time.Second, testLogger())

		prices := agg.Collect(context.Background(), testMint)
		assert.Empty(t, prices)
	})

	t.Run("slow venue is cut off by the quote timeout", func(t *testing.T) {
		agg := NewAggregator([]Client{
			&stubClient{name: "jupiter", price: 1.00},
			&stubClient{name: "raydium", price: 0.98, delay: 500 * time.Millisecond},
		}, 50*time.Millisecond, testLogger())

		start := time.Now()
		prices := agg.Collect(context.Background(), testMint)
		assert.Equal(t, map[string]float64{"jupiter": 1.00}, prices)
		assert.Less(t, time.Since(start), 400*time.Millisecond)
	})
}
