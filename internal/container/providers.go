// Package container provides dependency injection and lifecycle management
// for the expense approval service.
package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/expense-approvals/internal/application/dispatcher"
	"github.com/garyjia/expense-approvals/internal/application/port"
	"github.com/garyjia/expense-approvals/internal/application/service"
	"github.com/garyjia/expense-approvals/internal/config"
	"github.com/garyjia/expense-approvals/internal/domain/event"
	"github.com/garyjia/expense-approvals/internal/infrastructure/export"
	"github.com/garyjia/expense-approvals/internal/infrastructure/external/exchangerate"
	"github.com/garyjia/expense-approvals/internal/infrastructure/external/mail"
	"github.com/garyjia/expense-approvals/internal/infrastructure/persistence/repository"
	"github.com/garyjia/expense-approvals/internal/infrastructure/persistence/sqldb"
	"github.com/garyjia/expense-approvals/internal/infrastructure/security"
	"github.com/garyjia/expense-approvals/migrations"
	"github.com/garyjia/expense-approvals/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr port.TransactionManager
}

// ExternalBundle holds collaborators outside the database.
type ExternalBundle struct {
	Hasher port.PasswordHasher
	Tokens port.TokenIssuer
	Rates  port.RateProvider
	Mailer port.Mailer
	Report port.ReportWriter
}

// ProvideDatabase opens the configured database, applies the embedded
// migrations for its dialect and creates the transaction manager.
func ProvideDatabase(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Driver:          cfg.Driver,
		Path:            cfg.Path,
		DSN:             cfg.DSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	dir, err := migrations.Dir(db.Driver())
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(ctx, migrations.FS, dir); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqldb.NewTxManager(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Company: repository.NewCompanyRepository(db.DB, logger),
		User:    repository.NewUserRepository(db.DB, logger),
		Expense: repository.NewExpenseRepository(db.DB, logger),
		Rule:    repository.NewApprovalRuleRepository(db.DB, logger),
		History: repository.NewHistoryRepository(db.DB, logger),
	}, nil
}

// ProvideExternal creates the security, rate, mail and export collaborators.
func ProvideExternal(cfg *config.Config, logger *zap.Logger) (*ExternalBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &ExternalBundle{
		Hasher: security.NewBcryptHasher(cfg.Auth.BcryptCost),
		Tokens: security.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Rates: exchangerate.NewClient(exchangerate.Config{
			BaseURL: cfg.Currency.RatesBaseURL,
			Timeout: cfg.Currency.Timeout,
		}, logger),
		Mailer: mail.NewMailer(mail.Config{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		}, logger),
		Report: export.NewXLSXWriter(logger),
	}, nil
}

// ProvideDispatcher creates the event dispatcher and subscribes the
// lifecycle audit log to every expense event.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	d := dispatcher.NewDispatcher(
		dispatcher.WithLogger(&zapLoggerAdapter{logger: logger.Named("dispatcher")}),
	)

	audit := newLifecycleAuditHandler(logger.Named("audit"))
	for _, t := range []event.Type{
		event.TypeExpenseSubmitted,
		event.TypeExpenseAdvanced,
		event.TypeExpenseAwaiting,
		event.TypeExpenseApproved,
		event.TypeExpenseRejected,
	} {
		d.Subscribe(t, "lifecycle-audit", audit)
	}

	return d, nil
}

// newLifecycleAuditHandler writes one structured line per expense event
func newLifecycleAuditHandler(logger *zap.Logger) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		fields := []zap.Field{
			zap.String("event_id", evt.ID),
			zap.String("event_type", evt.Type.String()),
			zap.Int64("company_id", evt.CompanyID),
			zap.Int64("expense_id", evt.ExpenseID),
			zap.Int64("actor_id", evt.ActorID),
			zap.Time("occurred_at", evt.Timestamp),
		}
		for k, v := range evt.Payload {
			fields = append(fields, zap.Any(k, v))
		}
		logger.Info("Expense lifecycle event", fields...)
		return nil
	}
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos     *RepositoryBundle
	TxManager port.TransactionManager
	External  *ExternalBundle
	Events    port.EventPublisher
	Logger    *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.External == nil {
		return nil, fmt.Errorf("external collaborators are required")
	}
	if deps.Events == nil {
		return nil, fmt.Errorf("event publisher is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}
	repos := deps.Repos
	ext := deps.External

	return &ServiceBundle{
		Approval: service.NewApprovalService(
			repos.Expense,
			repos.Rule,
			repos.History,
			repos.User,
			deps.TxManager,
			deps.Events,
			serviceLogger,
		),
		Expense: service.NewExpenseService(
			repos.Expense,
			repos.Rule,
			repos.History,
			deps.TxManager,
			deps.Events,
			serviceLogger,
		),
		Manager: service.NewManagerService(
			repos.Expense,
			repos.History,
			repos.Company,
			ext.Rates,
			serviceLogger,
		),
		Account: service.NewAccountService(
			repos.Company,
			repos.User,
			deps.TxManager,
			ext.Hasher,
			ext.Tokens,
			ext.Mailer,
			serviceLogger,
		),
		Rule: service.NewRuleService(
			repos.Rule,
			deps.TxManager,
			serviceLogger,
		),
		Report: service.NewReportService(
			repos.Expense,
			repos.Company,
			ext.Report,
			serviceLogger,
		),
	}, nil
}
