package service

import (
	"context"
	"io"
	"time"

	"github.com/garyjia/expense-approvals/internal/domain/entity"
	"github.com/garyjia/expense-approvals/internal/domain/event"
	"github.com/garyjia/expense-approvals/internal/domain/workflow"
	"github.com/shopspring/decimal"
)

type mockCompanyRepo struct {
	createFunc  func(ctx context.Context, company *entity.Company) error
	getByIDFunc func(ctx context.Context, id int64) (*entity.Company, error)
}

func (m *mockCompanyRepo) Create(ctx context.Context, company *entity.Company) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, company)
	}
	company.ID = 1
	return nil
}

func (m *mockCompanyRepo) GetByID(ctx context.Context, id int64) (*entity.Company, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Company{ID: id, Name: "Acme", DefaultCurrency: "USD"}, nil
}

type mockUserRepo struct {
	createFunc        func(ctx context.Context, user *entity.User) error
	getByIDFunc       func(ctx context.Context, id int64) (*entity.User, error)
	getByEmailFunc    func(ctx context.Context, email string) (*entity.User, error)
	listByCompanyFunc func(ctx context.Context, companyID int64) ([]*entity.User, error)
	countByRoleFunc   func(ctx context.Context, companyID int64, role entity.Role) (int, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	user.ID = 10
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) ListByCompany(ctx context.Context, companyID int64) ([]*entity.User, error) {
	if m.listByCompanyFunc != nil {
		return m.listByCompanyFunc(ctx, companyID)
	}
	return []*entity.User{}, nil
}

func (m *mockUserRepo) CountByRole(ctx context.Context, companyID int64, role entity.Role) (int, error) {
	if m.countByRoleFunc != nil {
		return m.countByRoleFunc(ctx, companyID, role)
	}
	return 0, nil
}

type mockExpenseRepo struct {
	createFunc               func(ctx context.Context, expense *entity.Expense) error
	getByIDFunc              func(ctx context.Context, id int64) (*entity.Expense, error)
	getAmountFunc            func(ctx context.Context, id int64) (decimal.Decimal, error)
	advanceStepFunc          func(ctx context.Context, id, stepID int64) error
	resolveFunc              func(ctx context.Context, id int64, status workflow.Status, amount decimal.Decimal, clearStep bool) error
	listByEmployeeFunc       func(ctx context.Context, employeeID int64) ([]*entity.Expense, error)
	getForEmployeeFunc       func(ctx context.Context, id, employeeID int64) (*entity.Expense, error)
	listPendingByCompanyFunc func(ctx context.Context, companyID int64) ([]*entity.PendingExpense, error)
	listApprovedReportFunc   func(ctx context.Context, companyID int64) ([]*entity.ExpenseReportRow, error)
	sumByEmployeeFunc        func(ctx context.Context, employeeID int64) (*entity.EmployeeKPIs, error)
	sumTeamPendingFunc       func(ctx context.Context, managerID int64) (decimal.Decimal, error)
	sumTeamApprovedFunc      func(ctx context.Context, managerID int64, from, to time.Time) (decimal.Decimal, error)
	topSpendersFunc          func(ctx context.Context, managerID int64, from, to time.Time, limit int) ([]*entity.TopSpender, error)
}

func (m *mockExpenseRepo) Create(ctx context.Context, expense *entity.Expense) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, expense)
	}
	expense.ID = 1
	return nil
}

func (m *mockExpenseRepo) GetByID(ctx context.Context, id int64) (*entity.Expense, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockExpenseRepo) GetAmount(ctx context.Context, id int64) (decimal.Decimal, error) {
	if m.getAmountFunc != nil {
		return m.getAmountFunc(ctx, id)
	}
	return decimal.Zero, nil
}

func (m *mockExpenseRepo) AdvanceStep(ctx context.Context, id, stepID int64) error {
	if m.advanceStepFunc != nil {
		return m.advanceStepFunc(ctx, id, stepID)
	}
	return nil
}

func (m *mockExpenseRepo) Resolve(ctx context.Context, id int64, status workflow.Status, amount decimal.Decimal, clearStep bool) error {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, id, status, amount, clearStep)
	}
	return nil
}

func (m *mockExpenseRepo) ListByEmployee(ctx context.Context, employeeID int64) ([]*entity.Expense, error) {
	if m.listByEmployeeFunc != nil {
		return m.listByEmployeeFunc(ctx, employeeID)
	}
	return []*entity.Expense{}, nil
}

func (m *mockExpenseRepo) GetForEmployee(ctx context.Context, id, employeeID int64) (*entity.Expense, error) {
	if m.getForEmployeeFunc != nil {
		return m.getForEmployeeFunc(ctx, id, employeeID)
	}
	return nil, nil
}

func (m *mockExpenseRepo) ListPendingByCompany(ctx context.Context, companyID int64) ([]*entity.PendingExpense, error) {
	if m.listPendingByCompanyFunc != nil {
		return m.listPendingByCompanyFunc(ctx, companyID)
	}
	return []*entity.PendingExpense{}, nil
}

func (m *mockExpenseRepo) ListApprovedReport(ctx context.Context, companyID int64) ([]*entity.ExpenseReportRow, error) {
	if m.listApprovedReportFunc != nil {
		return m.listApprovedReportFunc(ctx, companyID)
	}
	return []*entity.ExpenseReportRow{}, nil
}

func (m *mockExpenseRepo) SumByEmployee(ctx context.Context, employeeID int64) (*entity.EmployeeKPIs, error) {
	if m.sumByEmployeeFunc != nil {
		return m.sumByEmployeeFunc(ctx, employeeID)
	}
	return &entity.EmployeeKPIs{}, nil
}

func (m *mockExpenseRepo) SumTeamPending(ctx context.Context, managerID int64) (decimal.Decimal, error) {
	if m.sumTeamPendingFunc != nil {
		return m.sumTeamPendingFunc(ctx, managerID)
	}
	return decimal.Zero, nil
}

func (m *mockExpenseRepo) SumTeamApproved(ctx context.Context, managerID int64, from, to time.Time) (decimal.Decimal, error) {
	if m.sumTeamApprovedFunc != nil {
		return m.sumTeamApprovedFunc(ctx, managerID, from, to)
	}
	return decimal.Zero, nil
}

func (m *mockExpenseRepo) TopSpenders(ctx context.Context, managerID int64, from, to time.Time, limit int) ([]*entity.TopSpender, error) {
	if m.topSpendersFunc != nil {
		return m.topSpendersFunc(ctx, managerID, from, to, limit)
	}
	return []*entity.TopSpender{}, nil
}

type mockRuleRepo struct {
	createFunc              func(ctx context.Context, rule *entity.ApprovalRule) error
	listByCompanyFunc       func(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error)
	firstSequentialRuleFunc func(ctx context.Context, companyID int64) (*entity.ApprovalRule, error)
	firstStepFunc           func(ctx context.Context, ruleID int64) (*entity.ApprovalStep, error)
	getStepFunc             func(ctx context.Context, stepID int64) (*entity.ApprovalStep, error)
	nextStepFunc            func(ctx context.Context, ruleID int64, after int) (*entity.ApprovalStep, error)
}

func (m *mockRuleRepo) Create(ctx context.Context, rule *entity.ApprovalRule) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, rule)
	}
	rule.ID = 1
	return nil
}

func (m *mockRuleRepo) ListByCompany(ctx context.Context, companyID int64) ([]*entity.ApprovalRule, error) {
	if m.listByCompanyFunc != nil {
		return m.listByCompanyFunc(ctx, companyID)
	}
	return []*entity.ApprovalRule{}, nil
}

func (m *mockRuleRepo) FirstSequentialRule(ctx context.Context, companyID int64) (*entity.ApprovalRule, error) {
	if m.firstSequentialRuleFunc != nil {
		return m.firstSequentialRuleFunc(ctx, companyID)
	}
	return nil, nil
}

func (m *mockRuleRepo) FirstStep(ctx context.Context, ruleID int64) (*entity.ApprovalStep, error) {
	if m.firstStepFunc != nil {
		return m.firstStepFunc(ctx, ruleID)
	}
	return nil, nil
}

func (m *mockRuleRepo) GetStep(ctx context.Context, stepID int64) (*entity.ApprovalStep, error) {
	if m.getStepFunc != nil {
		return m.getStepFunc(ctx, stepID)
	}
	return nil, nil
}

func (m *mockRuleRepo) NextStep(ctx context.Context, ruleID int64, after int) (*entity.ApprovalStep, error) {
	if m.nextStepFunc != nil {
		return m.nextStepFunc(ctx, ruleID, after)
	}
	return nil, nil
}

type mockHistoryRepo struct {
	appended []*entity.ApprovalHistory

	appendFunc           func(ctx context.Context, entry *entity.ApprovalHistory) error
	countByApproverFunc  func(ctx context.Context, expenseID, approverID int64) (int, error)
	countByActionFunc    func(ctx context.Context, expenseID int64, action workflow.Action) (int, error)
	listByExpenseFunc    func(ctx context.Context, expenseID int64) ([]*entity.ApprovalHistory, error)
	approverNamesFunc    func(ctx context.Context, expenseIDs []int64) (map[int64][]string, error)
	recentByApproverFunc func(ctx context.Context, approverID int64, limit int) ([]*entity.ProcessedExpense, error)
}

func (m *mockHistoryRepo) Append(ctx context.Context, entry *entity.ApprovalHistory) error {
	if m.appendFunc != nil {
		if err := m.appendFunc(ctx, entry); err != nil {
			return err
		}
	}
	m.appended = append(m.appended, entry)
	return nil
}

func (m *mockHistoryRepo) CountByApprover(ctx context.Context, expenseID, approverID int64) (int, error) {
	if m.countByApproverFunc != nil {
		return m.countByApproverFunc(ctx, expenseID, approverID)
	}
	n := 0
	for _, e := range m.appended {
		if e.ExpenseID == expenseID && e.ApproverID == approverID {
			n++
		}
	}
	return n, nil
}

func (m *mockHistoryRepo) CountByAction(ctx context.Context, expenseID int64, action workflow.Action) (int, error) {
	if m.countByActionFunc != nil {
		return m.countByActionFunc(ctx, expenseID, action)
	}
	n := 0
	for _, e := range m.appended {
		if e.ExpenseID == expenseID && e.Action == action {
			n++
		}
	}
	return n, nil
}

func (m *mockHistoryRepo) ListByExpense(ctx context.Context, expenseID int64) ([]*entity.ApprovalHistory, error) {
	if m.listByExpenseFunc != nil {
		return m.listByExpenseFunc(ctx, expenseID)
	}
	return []*entity.ApprovalHistory{}, nil
}

func (m *mockHistoryRepo) ApproverNames(ctx context.Context, expenseIDs []int64) (map[int64][]string, error) {
	if m.approverNamesFunc != nil {
		return m.approverNamesFunc(ctx, expenseIDs)
	}
	return map[int64][]string{}, nil
}

func (m *mockHistoryRepo) RecentByApprover(ctx context.Context, approverID int64, limit int) ([]*entity.ProcessedExpense, error) {
	if m.recentByApproverFunc != nil {
		return m.recentByApproverFunc(ctx, approverID, limit)
	}
	return []*entity.ProcessedExpense{}, nil
}

type mockTxManager struct {
	calls     int
	commitErr error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	if err := fn(ctx); err != nil {
		return err
	}
	return m.commitErr
}

type mockRateProvider struct {
	calls  map[string]int
	rates  map[string]map[string]decimal.Decimal
	errFor map[string]error
}

func (m *mockRateProvider) LatestRates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[base]++
	if err := m.errFor[base]; err != nil {
		return nil, err
	}
	return m.rates[base], nil
}

type mockHasher struct{}

func (mockHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (mockHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return ErrInvalidCredentials
	}
	return nil
}

type mockTokenIssuer struct {
	issued []entity.Identity
}

func (m *mockTokenIssuer) Issue(identity entity.Identity) (string, time.Time, error) {
	m.issued = append(m.issued, identity)
	return "token", time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), nil
}

func (m *mockTokenIssuer) Verify(token string) (*entity.Identity, error) {
	return nil, ErrInvalidCredentials
}

type mockMailer struct {
	sent []string
	err  error
}

func (m *mockMailer) SendInvitation(ctx context.Context, recipient, tempPassword string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, recipient+":"+tempPassword)
	return nil
}

type mockReportWriter struct {
	company string
	rows    []*entity.ExpenseReportRow
	err     error
}

func (m *mockReportWriter) WriteApprovedExpenses(w io.Writer, companyName string, rows []*entity.ExpenseReportRow) error {
	m.company = companyName
	m.rows = rows
	if m.err != nil {
		return m.err
	}
	_, err := io.WriteString(w, "report")
	return err
}

type mockLogger struct {
	warnings int
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Warn(msg string, keysAndValues ...interface{})  { m.warnings++ }
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockPublisher struct {
	events []*event.Event
}

func (m *mockPublisher) DispatchAsync(ctx context.Context, evt *event.Event) {
	m.events = append(m.events, evt)
}
