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

// OrcaClient implements the Client interface against the Orca pools API.
type OrcaClient struct {
	apiURL string
	http   *http.Client
	logger *slog.Logger
}

// NewOrcaClient creates a new OrcaClient.
func NewOrcaClient(apiURL string, logger *slog.Logger) *OrcaClient {
	return &OrcaClient{
		apiURL: apiURL,
		http:   &http.Client{},
		logger: logger,
	}
}

func (o *OrcaClient) Name() string {
	return "orca"
}

// Quote lists the token's pools and returns the price of the pool that is
// quoted against USDC.
func (o *OrcaClient) Quote(ctx context.Context, tokenMint string) (model.Quote, error) {
	q := url.Values{}
	q.Set("tokenMint", tokenMint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.apiURL+"/pools?"+q.Encode(), nil)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := o.http.Do(req)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Quote{}, fmt.Errorf("%w: orca returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var body struct {
		Pools []struct {
			TokenBMint string      `json:"tokenBMint"`
			Price      json.Number `json:"price"`
		} `json:"pools"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	for _, pool := range body.Pools {
		if pool.TokenBMint != USDCMint {
			continue
		}
		price, err := pool.Price.Float64()
		if err != nil || price <= 0 {
			return model.Quote{}, fmt.Errorf("%w: orca returned invalid price", ErrUnavailable)
		}
		return model.Quote{
			Dex:       o.Name(),
			TokenMint: tokenMint,
			Price:     price,
			FetchedAt: time.Now(),
		}, nil
	}

	return model.Quote{}, fmt.Errorf("%w: orca has no USDC pool for %s", ErrUnavailable, tokenMint)
}
