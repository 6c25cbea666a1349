package dex

import (
	"fmt"
	"log/slog"

	"solarb/internal/config"
)

// NewClient creates a new DEX client based on the given name and configuration.
func NewClient(name string, logger *slog.Logger, cfg config.DexConfig) (Client, error) {
	switch name {
	case "jupiter":
		return NewJupiterClient(cfg.APIURL, logger), nil
	case "raydium":
		return NewRaydiumClient(cfg.APIURL, logger), nil
	case "orca":
		return NewOrcaClient(cfg.APIURL, logger), nil
	case "phoenix":
		return NewPhoenixClient(cfg.StreamURL, logger), nil
	default:
		return nil, fmt.Errorf("unknown dex: %s", name)
	}
}
