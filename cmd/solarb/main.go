package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/pflag"

	"solarb/internal/arbitrage"
	"solarb/internal/config"
	"solarb/internal/database"
	"solarb/internal/dex"
	"solarb/internal/scanner"
	"solarb/internal/trading"
	"solarb/internal/universe"
	"solarb/internal/wallet"
)

func main() {
	configPath := pflag.String("config", ".", "directory containing config.yaml")
	simulate := pflag.Bool("simulate", false, "force simulation mode regardless of config")
	pflag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Error("cannot load config", "error", err)
		os.Exit(1)
	}
	if *simulate {
		cfg.Simulation.Enabled = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg config.Config) error {
	signer, err := loadSigner(logger, cfg)
	if err != nil {
		return err
	}

	clients, err := buildClients(ctx, logger, cfg)
	if err != nil {
		return err
	}
	if len(clients) < 2 {
		return fmt.Errorf("need at least 2 enabled dexes, have %d", len(clients))
	}

	aggregator := dex.NewAggregator(clients, cfg.Scanner.QuoteTimeout(), logger)
	detector := arbitrage.NewDetector(logger, cfg.Trading)

	var repo database.Repository
	if cfg.Database.Enabled {
		pg, err := connectDatabase(ctx, cfg.Database)
		if err != nil {
			return err
		}
		repo = pg
	}

	engineCfg := trading.Config{
		Simulate:         cfg.Simulation.Enabled,
		SimulatedBalance: cfg.Simulation.BalanceSOL,
		MinAmount:        cfg.Trading.MinAmount,
		MaxAmount:        cfg.Trading.MaxAmount,
		MaxSlippage:      cfg.Trading.MaxSlippage,
	}

	var (
		balances trading.BalanceSource
		settler  trading.Settler
	)
	if !engineCfg.Simulate {
		balances = trading.NewRPCBalanceSource(cfg.RPC.Endpoint, cfg.RPC.Commitment)
		settler = trading.NewStubSettler(logger, 2*time.Second)
	}

	engine := trading.NewEngine(logger, engineCfg, settler, balances, repo)
	if err := engine.SetWallet(signer); err != nil {
		return fmt.Errorf("failed to set wallet: %w", err)
	}

	uni := universe.NewUniverse(logger,
		universe.NewRPCAccountChecker(cfg.RPC.Endpoint), "", cfg.Trading.MinMarketCap)

	sc := scanner.NewScanner(logger, cfg.Scanner, uni, aggregator, detector, engine)
	logger.Info("starting scan loop",
		"simulation", engineCfg.Simulate,
		"dexes", len(clients),
		"interval", cfg.Scanner.Interval().String(),
	)
	if err := sc.Run(ctx); err != nil {
		return err
	}

	logger.Info("shutdown complete",
		"trades", len(engine.History()),
		"totalProfit", engine.TotalProfit(),
	)
	return nil
}

// loadSigner loads the imported wallet when present, then the primary one,
// and generates a fresh primary wallet when neither exists. A password is
// taken from WALLET_PASSWORD when a record is encrypted at rest.
func loadSigner(logger *slog.Logger, cfg config.Config) (*wallet.Wallet, error) {
	vault := wallet.NewVault(cfg.Wallet.Dir, logger)
	password := []byte(os.Getenv("WALLET_PASSWORD"))

	for _, path := range []string{vault.ImportedPath(), vault.PrimaryPath()} {
		w, err := vault.Load(path, password)
		if err != nil {
			return nil, fmt.Errorf("failed to load wallet %s: %w", path, err)
		}
		if w == nil {
			continue
		}
		if w.Locked() {
			return nil, fmt.Errorf("wallet %s is encrypted, set WALLET_PASSWORD", path)
		}
		return w, nil
	}

	w, err := vault.Generate(password)
	if err != nil {
		return nil, fmt.Errorf("failed to generate wallet: %w", err)
	}
	if err := vault.Save(w, vault.PrimaryPath()); err != nil {
		return nil, err
	}
	if w.Locked() {
		return w.Unlock(password)
	}
	return w, nil
}

func buildClients(ctx context.Context, logger *slog.Logger, cfg config.Config) ([]dex.Client, error) {
	var clients []dex.Client
	for name, dcfg := range cfg.Dexes {
		if !dcfg.Enabled {
			continue
		}
		client, err := dex.NewClient(name, logger, dcfg)
		if err != nil {
			return nil, err
		}
		if streamed, ok := client.(*dex.PhoenixClient); ok {
			go func() {
				if err := streamed.Run(ctx); err != nil {
					logger.Error("phoenix stream stopped", "error", err)
				}
			}()
		}
		clients = append(clients, client)
	}
	return clients, nil
}

func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*database.PostgresRepository, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	repo := &database.PostgresRepository{Pool: pool}
	if err := repo.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return repo, nil
}
