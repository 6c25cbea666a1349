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

// jupiterUnit is the input amount sent with every quote request: one whole
// token at 6 decimals. The returned USDC amount is then the unit price.
const jupiterUnit = 1_000_000

// JupiterClient implements the Client interface against the Jupiter quote API.
type JupiterClient struct {
	apiURL string
	http   *http.Client
	logger *slog.Logger
}

// NewJupiterClient creates a new JupiterClient.
func NewJupiterClient(apiURL string, logger *slog.Logger) *JupiterClient {
	return &JupiterClient{
		apiURL: apiURL,
		http:   &http.Client{},
		logger: logger,
	}
}

func (j *JupiterClient) Name() string {
	return "jupiter"
}

// Quote asks Jupiter for a swap quote of one token into USDC and derives the
// price from the out amount.
func (j *JupiterClient) Quote(ctx context.Context, tokenMint string) (model.Quote, error) {
	q := url.Values{}
	q.Set("inputMint", tokenMint)
	q.Set("outputMint", USDCMint)
	q.Set("amount", fmt.Sprintf("%d", jupiterUnit))
	q.Set("slippage", "0.5")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.apiURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := j.http.Do(req)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Quote{}, fmt.Errorf("%w: jupiter returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var body struct {
		OutAmount json.Number `json:"outAmount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.Quote{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	out, err := body.OutAmount.Float64()
	if err != nil || out <= 0 {
		return model.Quote{}, fmt.Errorf("%w: jupiter returned no out amount", ErrUnavailable)
	}

	return model.Quote{
		Dex:       j.Name(),
		TokenMint: tokenMint,
		Price:     out / jupiterUnit,
		FetchedAt: time.Now(),
	}, nil
}
