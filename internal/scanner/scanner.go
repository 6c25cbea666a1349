package scanner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"solarb/internal/arbitrage"
	"solarb/internal/config"
	"solarb/internal/model"
	"solarb/internal/trading"
)

// CandidateSource supplies the tokens to scan.
type CandidateSource interface {
	Candidates(ctx context.Context) []string
}

// PriceSource supplies per-DEX prices for one token.
type PriceSource interface {
	Collect(ctx context.Context, tokenMint string) map[string]float64
}

// Executor turns a ranked opportunity into a trade.
type Executor interface {
	Execute(ctx context.Context, opp model.Opportunity) (*model.Trade, error)
}

// Scanner is the periodic driver: it fans price collection out over the
// candidate set in rate-limited batches, detects and ranks opportunities,
// and executes the top ones serially.
type Scanner struct {
	logger     *slog.Logger
	cfg        config.ScannerConfig
	candidates CandidateSource
	prices     PriceSource
	detector   *arbitrage.Detector
	executor   Executor
}

// NewScanner creates a new Scanner.
func NewScanner(logger *slog.Logger, cfg config.ScannerConfig, candidates CandidateSource, prices PriceSource, detector *arbitrage.Detector, executor Executor) *Scanner {
	return &Scanner{
		logger:     logger,
		cfg:        cfg,
		candidates: candidates,
		prices:     prices,
		detector:   detector,
		executor:   executor,
	}
}

// Scan runs one full cycle and returns the executed trades. Cancellation is
// honored at batch boundaries; an in-flight execution always completes.
func (s *Scanner) Scan(ctx context.Context) ([]model.Trade, error) {
	mints := s.candidates.Candidates(ctx)
	s.logger.Info("scan cycle started", "tokens", len(mints))

	opps, err := s.collectOpportunities(ctx, mints)
	if err != nil {
		return nil, err
	}

	ranked := s.detector.Rank(opps)
	s.logger.Info("scan cycle detected opportunities", "total", len(opps), "executing", len(ranked))

	var trades []model.Trade
	for _, opp := range ranked {
		trade, err := s.executor.Execute(ctx, opp)
		if err != nil {
			if errors.Is(err, trading.ErrInsufficientBalance) {
				s.logger.Warn("stopping scan cycle", "error", err)
				break
			}
			s.logger.Error("trade execution failed", "mint", opp.TokenMint, "error", err)
			continue
		}
		trades = append(trades, *trade)
	}
	return trades, nil
}

// collectOpportunities processes mints in fixed-size batches with a static
// pause between batches to respect venue rate limits.
func (s *Scanner) collectOpportunities(ctx context.Context, mints []string) ([]model.Opportunity, error) {
	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 5
	}

	var (
		mu   sync.Mutex
		opps []model.Opportunity
	)

	for start := 0; start < len(mints); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+batchSize, len(mints))
		g, gctx := errgroup.WithContext(ctx)
		for _, mint := range mints[start:end] {
			g.Go(func() error {
				prices := s.prices.Collect(gctx, mint)
				found := s.detector.DetectAll(mint, prices)
				if len(found) == 0 {
					return nil
				}
				mu.Lock()
				opps = append(opps, found...)
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()

		if end < len(mints) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.cfg.BatchDelay()):
			}
		}
	}
	return opps, nil
}

// Run repeats Scan until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) error {
	for {
		if _, err := s.Scan(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("scan cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			s.logger.Info("scanner stopped")
			return nil
		case <-time.After(s.cfg.Interval()):
		}
	}
}
