package trading

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"solarb/internal/model"
	"solarb/internal/wallet"
)

type MockSettler struct {
	mock.Mock
}

func (m *MockSettler) Settle(ctx context.Context, opp model.Opportunity, amount, maxSlippage float64) (string, error) {
	args := m.Called(ctx, opp, amount, maxSlippage)
	return args.String(0), args.Error(1)
}

type MockBalanceSource struct {
	mock.Mock
}

func (m *MockBalanceSource) Balance(ctx context.Context, address string) (float64, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(float64), args.Error(1)
}

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRepository) LogTrade(ctx context.Context, trade model.Trade) error {
	args := m.Called(ctx, trade)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func testWallet() *wallet.Wallet {
	kp := solana.NewWallet()
	return &wallet.Wallet{
		Address: kp.PublicKey().String(),
		Secret:  kp.PrivateKey,
		Origin:  wallet.OriginGenerated,
	}
}

var testOpp = model.Opportunity{
	TokenMint:     "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
	BuyDex:        "orca",
	BuyPrice:      0.98,
	SellDex:       "raydium",
	SellPrice:     1.03,
	ProfitPercent: 5.102040816326531,
}

func TestEngine_ExecuteSimulated(t *testing.T) {
	cfg := Config{
		Simulate:         true,
		SimulatedBalance: 0.1,
		MinAmount:        0.1,
		MaxAmount:        1.0,
	}
	engine := NewEngine(testLogger(), cfg, nil, nil, nil)
	require.NoError(t, engine.SetWallet(testWallet()))

	trade, err := engine.Execute(context.Background(), testOpp)
	require.NoError(t, err)

	// Balance caps bind: amount lands in [0.8, 0.9] x balance.
	assert.GreaterOrEqual(t, trade.Amount, 0.08)
	assert.LessOrEqual(t, trade.Amount, 0.09)
	assert.InDelta(t, trade.Amount*testOpp.ProfitPercent/100, trade.Profit, 1e-12)
	assert.True(t, trade.Simulated)
	assert.Empty(t, trade.Signature)
	assert.NotEmpty(t, trade.ID)

	history := engine.History()
	require.Len(t, history, 1)
	assert.Equal(t, *trade, history[0])
}

func TestEngine_ExecuteNotReady(t *testing.T) {
	engine := NewEngine(testLogger(), Config{Simulate: true, SimulatedBalance: 10}, nil, nil, nil)

	_, err := engine.Execute(context.Background(), testOpp)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Empty(t, engine.History())
}

func TestEngine_SetWalletRejectsLocked(t *testing.T) {
	engine := NewEngine(testLogger(), Config{Simulate: true}, nil, nil, nil)

	locked := &wallet.Wallet{Address: "addr", Blob: &wallet.EncryptedSecret{}}
	assert.ErrorIs(t, engine.SetWallet(locked), ErrNotReady)
}

func TestEngine_ExecuteInsufficientBalance(t *testing.T) {
	cfg := Config{
		Simulate:         true,
		SimulatedBalance: 0.05,
		MinAmount:        0.1,
		MaxAmount:        1.0,
	}
	engine := NewEngine(testLogger(), cfg, nil, nil, nil)
	require.NoError(t, engine.SetWallet(testWallet()))

	_, err := engine.Execute(context.Background(), testOpp)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Empty(t, engine.History())
	assert.Zero(t, engine.TotalProfit())
}

func TestEngine_ExecuteLive(t *testing.T) {
	cfg := Config{
		MinAmount:   0.1,
		MaxAmount:   1.0,
		MaxSlippage: 0.5,
	}
	w := testWallet()

	t.Run("successful settlement records the signature", func(t *testing.T) {
		settler := new(MockSettler)
		balances := new(MockBalanceSource)
		balances.On("Balance", mock.Anything, w.Address).Return(5.0, nil)
		settler.On("Settle", mock.Anything, testOpp, mock.AnythingOfType("float64"), 0.5).
			Return("5pXp9vE3signature", nil).Once()

		engine := NewEngine(testLogger(), cfg, settler, balances, nil)
		require.NoError(t, engine.SetWallet(w))

		trade, err := engine.Execute(context.Background(), testOpp)
		require.NoError(t, err)
		assert.False(t, trade.Simulated)
		assert.Equal(t, "5pXp9vE3signature", trade.Signature)
		assert.GreaterOrEqual(t, trade.Amount, 0.1)
		assert.LessOrEqual(t, trade.Amount, 1.0)
		settler.AssertExpectations(t)
	})

	t.Run("settlement failure records nothing", func(t *testing.T) {
		settler := new(MockSettler)
		balances := new(MockBalanceSource)
		balances.On("Balance", mock.Anything, w.Address).Return(5.0, nil)
		settler.On("Settle", mock.Anything, testOpp, mock.AnythingOfType("float64"), 0.5).
			Return("", errors.New("slippage exceeded")).Once()

		engine := NewEngine(testLogger(), cfg, settler, balances, nil)
		require.NoError(t, engine.SetWallet(w))

		_, err := engine.Execute(context.Background(), testOpp)
		assert.ErrorIs(t, err, ErrSettlementFailed)
		assert.Empty(t, engine.History())
	})

	t.Run("balance source failure aborts", func(t *testing.T) {
		balances := new(MockBalanceSource)
		balances.On("Balance", mock.Anything, w.Address).Return(0.0, errors.New("rpc down"))

		engine := NewEngine(testLogger(), cfg, new(MockSettler), balances, nil)
		require.NoError(t, engine.SetWallet(w))

		_, err := engine.Execute(context.Background(), testOpp)
		assert.Error(t, err)
		assert.Empty(t, engine.History())
	})
}

func TestEngine_RepositoryLogging(t *testing.T) {
	cfg := Config{Simulate: true, SimulatedBalance: 10, MinAmount: 0.1, MaxAmount: 1.0}

	t.Run("trades are forwarded to the repository", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("LogTrade", mock.Anything, mock.AnythingOfType("model.Trade")).Return(nil).Once()

		engine := NewEngine(testLogger(), cfg, nil, nil, repo)
		require.NoError(t, engine.SetWallet(testWallet()))

		_, err := engine.Execute(context.Background(), testOpp)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("repository errors are not fatal", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("LogTrade", mock.Anything, mock.AnythingOfType("model.Trade")).
			Return(errors.New("db down")).Once()

		engine := NewEngine(testLogger(), cfg, nil, nil, repo)
		require.NoError(t, engine.SetWallet(testWallet()))

		trade, err := engine.Execute(context.Background(), testOpp)
		require.NoError(t, err)
		require.Len(t, engine.History(), 1)
		assert.Equal(t, trade.ID, engine.History()[0].ID)
	})
}

func TestEngine_TotalProfit(t *testing.T) {
	cfg := Config{Simulate: true, SimulatedBalance: 10, MinAmount: 0.1, MaxAmount: 1.0}
	engine := NewEngine(testLogger(), cfg, nil, nil, nil)
	require.NoError(t, engine.SetWallet(testWallet()))

	for range 3 {
		_, err := engine.Execute(context.Background(), testOpp)
		require.NoError(t, err)
	}

	var sum float64
	for _, trade := range engine.History() {
		sum += trade.Profit
	}

	first := engine.TotalProfit()
	second := engine.TotalProfit()
	assert.Equal(t, first, second)
	assert.InDelta(t, sum, first, 1e-12)
}

func TestEngine_HistoryIsACopy(t *testing.T) {
	cfg := Config{Simulate: true, SimulatedBalance: 10, MinAmount: 0.1, MaxAmount: 1.0}
	engine := NewEngine(testLogger(), cfg, nil, nil, nil)
	require.NoError(t, engine.SetWallet(testWallet()))

	_, err := engine.Execute(context.Background(), testOpp)
	require.NoError(t, err)

	history := engine.History()
	history[0].Profit = 999

	assert.NotEqual(t, 999.0, engine.History()[0].Profit)
}
