package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"solarb/internal/model"
)

// Repository defines the standard interface for the persistent trade log.
type Repository interface {
	Migrate(ctx context.Context) error
	LogTrade(ctx context.Context, trade model.Trade) error
}

// PostgresRepository implements Repository on a pgx connection pool.
type PostgresRepository struct {
	Pool *pgxpool.Pool
}

// Migrate creates the trades table when it does not exist yet.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS trades (
		id UUID PRIMARY KEY,
		token_mint VARCHAR(64) NOT NULL,
		buy_dex VARCHAR(50) NOT NULL,
		sell_dex VARCHAR(50) NOT NULL,
		buy_price NUMERIC(20, 8) NOT NULL,
		sell_price NUMERIC(20, 8) NOT NULL,
		amount NUMERIC(20, 9) NOT NULL,
		profit NUMERIC(20, 9) NOT NULL,
		profit_percent NUMERIC(10, 4) NOT NULL,
		executed_at TIMESTAMPTZ NOT NULL,
		simulated BOOLEAN NOT NULL,
		signature VARCHAR(128)
	);`
	_, err := r.Pool.Exec(ctx, ddl)
	return err
}

// LogTrade appends one trade record.
func (r *PostgresRepository) LogTrade(ctx context.Context, trade model.Trade) error {
	const stmt = `
	INSERT INTO trades (
		id, token_mint, buy_dex, sell_dex, buy_price, sell_price,
		amount, profit, profit_percent, executed_at, simulated, signature
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`

	var signature any
	if trade.Signature != "" {
		signature = trade.Signature
	}

	_, err := r.Pool.Exec(ctx, stmt,
		trade.ID, trade.TokenMint, trade.BuyDex, trade.SellDex,
		trade.BuyPrice, trade.SellPrice, trade.Amount, trade.Profit,
		trade.ProfitPercent, trade.ExecutedAt, trade.Simulated, signature,
	)
	return err
}
