package dex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"solarb/internal/model"
)

// staleAfter bounds how old a streamed price may be before Quote stops
// serving it.
const staleAfter = 30 * time.Second

// PhoenixClient implements the Client interface on top of the Phoenix
// websocket price feed. Run must be started once; Quote is then served from
// the cache of the most recent tick per mint.
type PhoenixClient struct {
	streamURL string
	logger    *slog.Logger

	mu     sync.RWMutex
	prices map[string]model.Quote
}

// NewPhoenixClient creates a new PhoenixClient.
func NewPhoenixClient(streamURL string, logger *slog.Logger) *PhoenixClient {
	return &PhoenixClient{
		streamURL: streamURL,
		logger:    logger,
		prices:    make(map[string]model.Quote),
	}
}

func (p *PhoenixClient) Name() string {
	return "phoenix"
}

// Quote returns the cached streamed price for the token, or ErrUnavailable
// when no fresh tick has been seen.
func (p *PhoenixClient) Quote(_ context.Context, tokenMint string) (model.Quote, error) {
	p.mu.RLock()
	quote, ok := p.prices[tokenMint]
	p.mu.RUnlock()

	if !ok || time.Since(quote.FetchedAt) > staleAfter {
		return model.Quote{}, fmt.Errorf("%w: phoenix has no fresh price for %s", ErrUnavailable, tokenMint)
	}
	return quote, nil
}

// Run connects to the Phoenix websocket feed and keeps the price cache
// current, reconnecting with capped exponential backoff until ctx is
// cancelled.
func (p *PhoenixClient) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("PhoenixClient: context cancelled, shutting down")
			return nil
		default:
		}

		p.logger.Info("PhoenixClient: connecting to WebSocket", "url", p.streamURL, "backoff", backoff)
		c, _, err := websocket.DefaultDialer.DialContext(ctx, p.streamURL, nil)
		if err != nil {
			p.logger.Error("PhoenixClient: WebSocket connection failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
				backoff *= 2
				if backoff > 16*time.Second {
					backoff = 16 * time.Second
				}
			}
			continue
		}

		// Reset backoff on successful connection
		backoff = time.Second
		p.logger.Info("PhoenixClient: connected successfully")

		p.readLoop(ctx, c)
		c.Close()

		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}

func (p *PhoenixClient) readLoop(ctx context.Context, c *websocket.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := c.ReadMessage()
		if err != nil {
			p.logger.Error("PhoenixClient: failed to read message", "error", err)
			return
		}

		var tick struct {
			Mint  string      `json:"mint"`
			Price json.Number `json:"price"`
		}
		if err := json.Unmarshal(message, &tick); err != nil {
			p.logger.Warn("PhoenixClient: failed to parse message", "error", err)
			continue
		}

		price, err := tick.Price.Float64()
		if err != nil || price <= 0 || tick.Mint == "" {
			p.logger.Warn("PhoenixClient: ignoring malformed tick")
			continue
		}

		p.mu.Lock()
		p.prices[tick.Mint] = model.Quote{
			Dex:       p.Name(),
			TokenMint: tick.Mint,
			Price:     price,
			FetchedAt: time.Now(),
		}
		p.mu.Unlock()
	}
}
