package dex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"solarb/internal/model"
)

// RaydiumClient implements the Client interface against the Raydium pairs API.
type RaydiumClient struct {
	apiURL string
	http   *http.Client
	logger *slog.Logger
}

// NewRaydiumClient creates a new RaydiumClient.
func NewRaydiumClient(apiURL string, logger *slog.Logger) *RaydiumClient {
	return &RaydiumClient{
		apiURL: apiURL,
		http:   &http.Client{},
		logger: logger,
	}
}

func (r *RaydiumClient) Name() string {
	return "raydium"
}

// Quote looks up the USDC pair for the token and returns its last price.
func (r *RaydiumClient) Quote(ctx context.Context, tokenMint string) (model.Quote, error) {
	q := url.Values{}
	q.Set("bases", USDCMint)
	q.Set("quoteMint", tokenMint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.apiURL+"/pairs?"+q.Encode(), nil)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Quote{}, fmt.Errorf("%w: raydium returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var body struct {
		Data []struct {
			Price json.Number `json:"price"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if len(body.Data) == 0 {
		return model.Quote{}, fmt.Errorf("%w: raydium has no pair for %s", ErrUnavailable, tokenMint)
	}

	price, err := body.Data[0].Price.Float64()
	if err != nil || price <= 0 {
		return model.Quote{}, fmt.Errorf("%w: raydium returned invalid price", ErrUnavailable)
	}

	return model.Quote{
		Dex:       r.Name(),
		TokenMint: tokenMint,
		Price:     price,
		FetchedAt: time.Now(),
	}, nil
}
