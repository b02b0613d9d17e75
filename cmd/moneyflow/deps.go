package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"moneyflow/internal/domain/importrule"
	"moneyflow/internal/domain/ledger"
	"moneyflow/internal/domain/money"
	"moneyflow/internal/domain/notification"
	"moneyflow/internal/domain/statement"
	"moneyflow/internal/infrastructure/crypto"
	"moneyflow/internal/infrastructure/firebase"
	"moneyflow/internal/infrastructure/parsers"
	"moneyflow/internal/infrastructure/postgres"
	"moneyflow/internal/infrastructure/rates"
	"moneyflow/internal/shared/config"
	"moneyflow/internal/shared/telemetry"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB *postgres.DB

	// Repositories
	AccountRepo     *postgres.AccountRepository
	TransactionRepo *postgres.TransactionRepository

	// Services
	RuleService   *importrule.Service
	LedgerService *ledger.Service
	Normalizer    *money.Normalizer

	// Encryptor is nil when ENCRYPTION_KEY is unset.
	Encryptor *crypto.Encryptor

	shutdownTelemetry func(context.Context) error
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	d := &Dependencies{}

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			MetricsPort:  cfg.Telemetry.MetricsPort,
		})
		if err != nil {
			return nil, err
		}
		d.shutdownTelemetry = shutdown
	}

	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		d.Close(ctx)
		return nil, err
	}
	d.DB = db
	log.Info("Connected to database", "host", cfg.Database.Host, "db", cfg.Database.DBName)

	// Initialize encryptor
	var secrets parsers.SecretOpener
	if cfg.Encryption.Key != "" {
		encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
		if err != nil {
			d.Close(ctx)
			return nil, err
		}
		d.Encryptor = encryptor
		secrets = encryptor
	}

	rateSource, err := newRateSource(cfg.Rates)
	if err != nil {
		d.Close(ctx)
		return nil, err
	}

	// Initialize repositories
	d.AccountRepo = postgres.NewAccountRepository(db)
	d.TransactionRepo = postgres.NewTransactionRepository(db)
	ruleRepo := postgres.NewImportRuleRepository(db)

	var notifier ledger.Notifier
	if cfg.Firebase.CredentialsFile != "" {
		fb, err := firebase.NewClient(ctx, cfg.Firebase.CredentialsFile)
		if err != nil {
			log.Warn("Failed to initialize Firebase, import notifications disabled", "err", err)
		} else {
			notifier = notification.NewService(fb)
		}
	}

	// Initialize domain services
	d.Normalizer = money.NewNormalizer(rateSource)
	d.RuleService = importrule.NewService(ruleRepo)
	registry := parsers.NewRegistry(statement.DefaultLayout(), secrets)
	d.LedgerService = ledger.NewService(d.AccountRepo, ruleRepo, d.TransactionRepo, d.Normalizer, registry, notifier)

	return d, nil
}

// Recalculator returns a batch recalculator over the ledger store.
func (d *Dependencies) Recalculator(groupSize int) *money.Recalculator {
	return money.NewRecalculator(d.TransactionRepo, d.Normalizer, groupSize)
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close(ctx context.Context) {
	if d.DB != nil {
		d.DB.Close()
	}
	if d.shutdownTelemetry != nil {
		if err := d.shutdownTelemetry(ctx); err != nil {
			log.Error("Telemetry shutdown failed", "err", err)
		}
	}
}

func newRateSource(cfg config.RatesConfig) (money.RateSource, error) {
	switch cfg.Source {
	case config.RatesStatic:
		src, err := rates.LoadStatic(cfg.StaticFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load static rates: %w", err)
		}
		return src, nil
	default:
		return rates.NewClient(
			rates.WithURLs(cfg.PrimaryURL, cfg.FallbackURL),
			rates.WithTimeout(cfg.Timeout),
		), nil
	}
}
