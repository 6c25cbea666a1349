package dex

import (
	"context"
	"errors"

	"solarb/internal/model"
)

// USDCMint is the mint address all prices are quoted against.
const USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

// ErrUnavailable is returned when a DEX cannot supply a price for a token:
// network failure, unsupported token or malformed response are all
// equivalent to the caller.
var ErrUnavailable = errors.New("dex unavailable")

// Client defines the standard interface for all DEX price sources. Quote
// returns the current USDC price of one whole token, normalized to the
// Quote shape regardless of the venue's own wire format.
type Client interface {
	Name() string
	Quote(ctx context.Context, tokenMint string) (model.Quote, error)
}
