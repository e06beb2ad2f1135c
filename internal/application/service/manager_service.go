package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/expense-approvals/internal/application/port"
	"github.com/garyjia/expense-approvals/internal/domain/entity"
	"github.com/shopspring/decimal"
)

const (
	topSpendersLimit       = 5
	recentlyProcessedLimit = 10
	avgApprovalTimeUnknown = "N/A"
)

// PendingExpenses is the manager's pending list in the company currency
type PendingExpenses struct {
	Expenses        []*entity.PendingExpense `json:"expenses"`
	DefaultCurrency string                   `json:"default_currency"`
}

// ManagerService serves the manager dashboard
type ManagerService interface {
	// PendingExpenses lists every pending expense of the company, converted
	// to the company's default currency where a rate is available.
	PendingExpenses(ctx context.Context, companyID int64) (*PendingExpenses, error)
	KPIs(ctx context.Context, managerID int64) (*entity.ManagerKPIs, error)
	TopSpenders(ctx context.Context, managerID int64) ([]*entity.TopSpender, error)
	RecentlyProcessed(ctx context.Context, managerID int64) ([]*entity.ProcessedExpense, error)
}

type managerServiceImpl struct {
	expenseRepo port.ExpenseRepository
	historyRepo port.ApprovalHistoryRepository
	companyRepo port.CompanyRepository
	rates       port.RateProvider
	logger      Logger
	now         func() time.Time
}

// NewManagerService creates a new ManagerService
func NewManagerService(
	expenseRepo port.ExpenseRepository,
	historyRepo port.ApprovalHistoryRepository,
	companyRepo port.CompanyRepository,
	rates port.RateProvider,
	logger Logger,
) ManagerService {
	return &managerServiceImpl{
		expenseRepo: expenseRepo,
		historyRepo: historyRepo,
		companyRepo: companyRepo,
		rates:       rates,
		logger:      logger,
		now:         time.Now,
	}
}

// PendingExpenses loads the pending list, attaches approver names, and
// converts foreign amounts. Rate failures leave converted_amount unset.
func (s *managerServiceImpl) PendingExpenses(ctx context.Context, companyID int64) (*PendingExpenses, error) {
	expenses, err := s.expenseRepo.ListPendingByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending expenses: %w", err)
	}

	ids := make([]int64, 0, len(expenses))
	for _, e := range expenses {
		ids = append(ids, e.ID)
	}
	names, err := s.historyRepo.ApproverNames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get approvers: %w", err)
	}

	defaultCurrency := entity.DefaultCurrency
	company, err := s.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	if company != nil && company.DefaultCurrency != "" {
		defaultCurrency = company.DefaultCurrency
	}

	converter := newRateCache(s.rates, defaultCurrency, s.logger)
	for _, e := range expenses {
		e.Approvers = strings.Join(names[e.ID], ", ")
		if converted, ok := converter.convert(ctx, e.Amount, e.Currency); ok {
			e.ConvertedAmount = &converted
		}
	}

	return &PendingExpenses{
		Expenses:        expenses,
		DefaultCurrency: defaultCurrency,
	}, nil
}

// KPIs returns the team totals of a manager's direct reports
func (s *managerServiceImpl) KPIs(ctx context.Context, managerID int64) (*entity.ManagerKPIs, error) {
	pending, err := s.expenseRepo.SumTeamPending(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get manager KPIs: %w", err)
	}

	from, to := monthBounds(s.now())
	approved, err := s.expenseRepo.SumTeamApproved(ctx, managerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get manager KPIs: %w", err)
	}

	return &entity.ManagerKPIs{
		TotalPending:       pending,
		TotalApprovedMonth: approved,
		AvgApprovalTime:    avgApprovalTimeUnknown,
	}, nil
}

// TopSpenders ranks direct reports by approved spend this month
func (s *managerServiceImpl) TopSpenders(ctx context.Context, managerID int64) ([]*entity.TopSpender, error) {
	from, to := monthBounds(s.now())
	spenders, err := s.expenseRepo.TopSpenders(ctx, managerID, from, to, topSpendersLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top spenders: %w", err)
	}
	return spenders, nil
}

// RecentlyProcessed returns the manager's latest actions
func (s *managerServiceImpl) RecentlyProcessed(ctx context.Context, managerID int64) ([]*entity.ProcessedExpense, error) {
	processed, err := s.historyRepo.RecentByApprover(ctx, managerID, recentlyProcessedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recently processed expenses: %w", err)
	}
	return processed, nil
}

// monthBounds returns [first of month, first of next month) in UTC
func monthBounds(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// rateCache memoizes rate lookups for one request. A currency whose lookup
// failed is not retried within the same request.
type rateCache struct {
	provider port.RateProvider
	target   string
	logger   Logger
	rates    map[string]map[string]decimal.Decimal
}

func newRateCache(provider port.RateProvider, target string, logger Logger) *rateCache {
	return &rateCache{
		provider: provider,
		target:   target,
		logger:   logger,
		rates:    make(map[string]map[string]decimal.Decimal),
	}
}

// convert returns amount in the target currency rounded to 2 places
func (c *rateCache) convert(ctx context.Context, amount decimal.Decimal, currency string) (decimal.Decimal, bool) {
	if currency == c.target || c.provider == nil {
		return decimal.Decimal{}, false
	}

	table, seen := c.rates[currency]
	if !seen {
		var err error
		table, err = c.provider.LatestRates(ctx, currency)
		if err != nil {
			c.logger.Warn("Could not fetch exchange rate",
				"currency", currency,
				"error", err)
			table = nil
		}
		c.rates[currency] = table
	}

	rate, ok := table[c.target]
	if !ok {
		return decimal.Decimal{}, false
	}
	return amount.Mul(rate).Round(2), true
}
