package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/stakepact/stakepact/internal/airtable"
	"github.com/stakepact/stakepact/internal/config"
	"github.com/stakepact/stakepact/internal/db"
	"github.com/stakepact/stakepact/internal/repository"
	"github.com/stakepact/stakepact/internal/service"
	"github.com/stakepact/stakepact/internal/service/payment"
)

type App struct {
	Cfg               *config.Config
	DB                *sqlx.DB
	GoalService       *service.GoalService
	EmailService      *service.EmailService
	PaymentService    payment.Provider
	SettlementService *service.SettlementService
}

func New(cfg *config.Config) (*App, error) {
	// Audit ledger database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Record store
	store := airtable.NewClient(cfg.AirtableBaseID, cfg.AirtableKey, cfg.AirtableTimeout)

	// Repositories
	goalRepository := repository.NewGoalRepository(store, cfg.AirtableGoalsTable)
	confirmationRepository := repository.NewConfirmationRepository(store, cfg.AirtableConfirmationsTable)
	chargeAttemptRepository := repository.NewChargeAttemptRepository(database)

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.AppURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)

	paymentProvider, err := payment.NewProvider(cfg, goalRepository)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payment provider: %v", err)
	}

	settlementService := service.NewSettlementService(
		goalRepository,
		confirmationRepository,
		chargeAttemptRepository,
		paymentProvider,
		cfg.SweepGracePeriod,
	).WithEmailNotifier(emailService)

	goalService := service.NewGoalService(goalRepository, paymentProvider, emailService)

	return &App{
		Cfg:               cfg,
		DB:                database,
		GoalService:       goalService,
		EmailService:      emailService,
		PaymentService:    paymentProvider,
		SettlementService: settlementService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
