package port

import (
	"context"
	"io"
	"time"

	"github.com/garyjia/expense-approvals/internal/domain/entity"
	"github.com/garyjia/expense-approvals/internal/domain/event"
	"github.com/shopspring/decimal"
)

// RateProvider looks up exchange rates for a base currency
type RateProvider interface {
	// LatestRates returns the rates of every known currency against base
	LatestRates(ctx context.Context, base string) (map[string]decimal.Decimal, error)
}

// Mailer delivers account emails
type Mailer interface {
	SendInvitation(ctx context.Context, recipient, tempPassword string) error
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer signs and verifies caller identities
type TokenIssuer interface {
	Issue(identity entity.Identity) (token string, expiresAt time.Time, err error)
	Verify(token string) (*entity.Identity, error)
}

// ReportWriter renders expense reports
type ReportWriter interface {
	WriteApprovedExpenses(w io.Writer, companyName string, rows []*entity.ExpenseReportRow) error
}

// EventPublisher announces committed lifecycle changes without blocking the caller
type EventPublisher interface {
	DispatchAsync(ctx context.Context, evt *event.Event)
}
