package universe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/samber/lo"
)

// defaultTokenListURL serves token metadata including market caps.
const defaultTokenListURL = "https://token-list-api.solana.cloud/v1/list"

// seedMints are well-known tokens that are always part of the candidate set.
var seedMints = []string{
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", // USDC
	"So11111111111111111111111111111111111111112",  // Wrapped SOL
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So",  // mSOL
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263", // BONK
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", // USDT
	"ArUkYE2XDKzqy77PRRGjo4wREWwqk6RXTfM9NeqzPvjU", // Raydium
	"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R", // Raydium LP
	"7vfCXTUXx5WJV5JADk17DUJ4ksgau7utNKj4b963voxs", // Orca
}

// AccountChecker verifies that a mint account exists on chain and carries
// data.
type AccountChecker interface {
	AccountExists(ctx context.Context, mint string) (bool, error)
}

// Universe maintains the candidate set of tokens to scan: a seed list plus
// discovered high-market-cap tokens, minus quarantined ones.
type Universe struct {
	logger       *slog.Logger
	checker      AccountChecker
	listURL      string
	minMarketCap int64
	http         *http.Client

	mu          sync.Mutex
	discovered  []string
	quarantined map[string]bool // cached verdicts, true = quarantined
}

// NewUniverse creates a Universe. An empty listURL selects the default token
// list endpoint.
func NewUniverse(logger *slog.Logger, checker AccountChecker, listURL string, minMarketCap int64) *Universe {
	if listURL == "" {
		listURL = defaultTokenListURL
	}
	return &Universe{
		logger:       logger,
		checker:      checker,
		listURL:      listURL,
		minMarketCap: minMarketCap,
		http:         &http.Client{},
		quarantined:  make(map[string]bool),
	}
}

// Discover pulls the token list and keeps addresses whose market cap clears
// the configured minimum. On any failure the previously discovered set is
// kept unchanged.
func (u *Universe) Discover(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.listURL, nil)
	if err != nil {
		u.logger.Error("failed to build token list request", "error", err)
		return
	}

	resp, err := u.http.Do(req)
	if err != nil {
		u.logger.Error("failed to fetch token list", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		u.logger.Error("token list returned non-OK status", "status", resp.StatusCode)
		return
	}

	var body struct {
		Tokens []struct {
			Address   string `json:"address"`
			MarketCap int64  `json:"marketCap"`
		} `json:"tokens"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		u.logger.Error("failed to decode token list", "error", err)
		return
	}

	found := make([]string, 0, len(body.Tokens))
	for _, t := range body.Tokens {
		if t.Address != "" && t.MarketCap > u.minMarketCap {
			found = append(found, t.Address)
		}
	}

	u.mu.Lock()
	u.discovered = lo.Uniq(append(u.discovered, found...))
	total := len(u.discovered)
	u.mu.Unlock()

	u.logger.Info("token discovery complete", "found", len(found), "totalDiscovered", total)
}

// IsQuarantined reports whether a mint is excluded from scanning. Unknown
// mints are verified against the chain; a failed or inconclusive check
// quarantines the mint. Fail closed: a token is untrustworthy unless
// affirmatively verified. Verdicts are cached.
func (u *Universe) IsQuarantined(ctx context.Context, mint string) bool {
	u.mu.Lock()
	verdict, seen := u.quarantined[mint]
	u.mu.Unlock()
	if seen {
		return verdict
	}

	exists, err := u.checker.AccountExists(ctx, mint)
	quarantined := err != nil || !exists
	if err != nil {
		u.logger.Warn("trust check failed, quarantining token", "mint", mint, "error", err)
	}

	u.mu.Lock()
	u.quarantined[mint] = quarantined
	u.mu.Unlock()
	return quarantined
}

// Candidates returns the deduplicated candidate mints in stable order, seed
// list first, with quarantined tokens removed. Discovery runs best-effort
// before filtering.
func (u *Universe) Candidates(ctx context.Context) []string {
	u.Discover(ctx)

	u.mu.Lock()
	all := lo.Uniq(append(append([]string{}, seedMints...), u.discovered...))
	u.mu.Unlock()

	candidates := lo.Filter(all, func(mint string, _ int) bool {
		return !u.IsQuarantined(ctx, mint)
	})

	u.logger.Info("candidate tokens selected", "count", len(candidates))
	return candidates
}

// Quarantine force-marks a mint as untrustworthy.
func (u *Universe) Quarantine(mint string) {
	u.mu.Lock()
	u.quarantined[mint] = true
	u.mu.Unlock()
}

// String implements fmt.Stringer for log output.
func (u *Universe) String() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return fmt.Sprintf("universe(seed=%d discovered=%d quarantined=%d)",
		len(seedMints), len(u.discovered), len(u.quarantined))
}
