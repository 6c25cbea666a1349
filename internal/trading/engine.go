package trading

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"solarb/internal/database"
	"solarb/internal/model"
	"solarb/internal/wallet"
)

var (
	// ErrNotReady is returned when Execute is called before an unlocked
	// wallet has been set.
	ErrNotReady = errors.New("no wallet loaded")

	// ErrInsufficientBalance is returned when the balance is below the
	// configured minimum trade amount.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrSettlementFailed is returned when a live trade fails after sizing.
	// No trade is recorded in that case.
	ErrSettlementFailed = errors.New("settlement failed")
)

// Config defines the execution behaviour of one Engine instance. Simulation
// is an explicit per-engine setting, never process-global state.
type Config struct {
	Simulate         bool
	SimulatedBalance float64 // SOL, used only when simulating
	MinAmount        float64 // SOL
	MaxAmount        float64 // SOL
	MaxSlippage      float64 // percent, forwarded to the settler
}

// Settler performs the live venue-pair round trip and returns a settlement
// signature. It is the single point where real funds move.
type Settler interface {
	Settle(ctx context.Context, opp model.Opportunity, amount, maxSlippage float64) (string, error)
}

// BalanceSource reports the spendable SOL balance of an address.
type BalanceSource interface {
	Balance(ctx context.Context, address string) (float64, error)
}

// Engine consumes opportunities, sizes trades against the available balance
// and either simulates or settles them, keeping an append-only in-memory
// trade ledger.
type Engine struct {
	logger   *slog.Logger
	cfg      Config
	settler  Settler
	balances BalanceSource
	repo     database.Repository // optional persistent trade log

	execMu sync.Mutex // serializes the whole execute path
	signer *wallet.Wallet

	ledgerMu sync.RWMutex
	history  []model.Trade
}

// NewEngine creates a new Engine. settler and balances may be nil when
// cfg.Simulate is set; repo may always be nil.
func NewEngine(logger *slog.Logger, cfg Config, settler Settler, balances BalanceSource, repo database.Repository) *Engine {
	return &Engine{
		logger:   logger,
		cfg:      cfg,
		settler:  settler,
		balances: balances,
		repo:     repo,
	}
}

// SetWallet installs the signing identity. The wallet must be unlocked.
func (e *Engine) SetWallet(w *wallet.Wallet) error {
	if w == nil || w.Locked() {
		return ErrNotReady
	}
	e.execMu.Lock()
	e.signer = w
	e.execMu.Unlock()
	e.logger.Info("wallet set", "address", w.Address)
	return nil
}

// Balance returns the spendable balance in SOL: the configured simulated
// balance in simulation mode, the on-chain balance otherwise.
func (e *Engine) Balance(ctx context.Context) (float64, error) {
	if e.cfg.Simulate {
		return e.cfg.SimulatedBalance, nil
	}
	e.execMu.Lock()
	signer := e.signer
	e.execMu.Unlock()
	if signer == nil {
		return 0, ErrNotReady
	}
	return e.balances.Balance(ctx, signer.Address)
}

// Execute sizes and executes one opportunity, appending exactly one trade to
// the ledger on success. A settlement failure records nothing.
func (e *Engine) Execute(ctx context.Context, opp model.Opportunity) (*model.Trade, error) {
	e.execMu.Lock()
	defer e.execMu.Unlock()

	if e.signer == nil {
		return nil, ErrNotReady
	}

	balance, err := e.balance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	if balance < e.cfg.MinAmount {
		return nil, fmt.Errorf("%w: %.4f SOL", ErrInsufficientBalance, balance)
	}

	amount := e.sizeTrade(balance)

	e.logger.Info("executing arbitrage",
		"mint", opp.TokenMint,
		"buyDex", opp.BuyDex,
		"buyPrice", opp.BuyPrice,
		"sellDex", opp.SellDex,
		"sellPrice", opp.SellPrice,
		"profitPercent", opp.ProfitPercent,
		"amount", amount,
	)

	trade := model.Trade{
		ID:            uuid.NewString(),
		TokenMint:     opp.TokenMint,
		BuyDex:        opp.BuyDex,
		SellDex:       opp.SellDex,
		BuyPrice:      opp.BuyPrice,
		SellPrice:     opp.SellPrice,
		Amount:        amount,
		Profit:        amount * opp.ProfitPercent / 100,
		ProfitPercent: opp.ProfitPercent,
		ExecutedAt:    time.Now().UTC(),
		Simulated:     e.cfg.Simulate,
	}

	if !e.cfg.Simulate {
		signature, err := e.settler.Settle(ctx, opp, amount, e.cfg.MaxSlippage)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSettlementFailed, err)
		}
		trade.Signature = signature
	}

	e.record(ctx, trade)
	e.logger.Info("trade complete", "id", trade.ID, "profit", trade.Profit, "simulated", trade.Simulated)
	return &trade, nil
}

// balance is Balance without re-entering execMu.
func (e *Engine) balance(ctx context.Context) (float64, error) {
	if e.cfg.Simulate {
		return e.cfg.SimulatedBalance, nil
	}
	return e.balances.Balance(ctx, e.signer.Address)
}

// sizeTrade picks a random amount in [min(balance*0.8, MinAmount),
// min(balance*0.9, MaxAmount)]. The caps keep the trade below the full
// balance as a safety margin, not a solvency guarantee after fees.
func (e *Engine) sizeTrade(balance float64) float64 {
	lower := min(balance*0.8, e.cfg.MinAmount)
	upper := min(balance*0.9, e.cfg.MaxAmount)
	if upper < lower {
		upper = lower
	}
	return lower + rand.Float64()*(upper-lower)
}

func (e *Engine) record(ctx context.Context, trade model.Trade) {
	e.ledgerMu.Lock()
	e.history = append(e.history, trade)
	e.ledgerMu.Unlock()

	if e.repo == nil {
		return
	}
	if err := e.repo.LogTrade(ctx, trade); err != nil {
		e.logger.Error("failed to log trade", "id", trade.ID, "error", err)
	}
}

// History returns a copy of the trade ledger in execution order.
func (e *Engine) History() []model.Trade {
	e.ledgerMu.RLock()
	defer e.ledgerMu.RUnlock()
	out := make([]model.Trade, len(e.history))
	copy(out, e.history)
	return out
}

// TotalProfit sums profit over the ledger. It is recomputed on every call
// rather than cached, so it can never drift from the ledger.
func (e *Engine) TotalProfit() float64 {
	e.ledgerMu.RLock()
	defer e.ledgerMu.RUnlock()
	var total float64
	for _, t := range e.history {
		total += t.Profit
	}
	return total
}
