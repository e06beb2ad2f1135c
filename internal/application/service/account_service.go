package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/expense-approvals/internal/application/port"
	"github.com/garyjia/expense-approvals/internal/domain/entity"
	"github.com/garyjia/expense-approvals/pkg/utils"
	"github.com/google/uuid"
)

// SignupRequest registers a company and its first admin
type SignupRequest struct {
	CompanyName     string
	Email           string
	Password        string
	DefaultCurrency string
}

// AddUserRequest invites a user into the caller's company
type AddUserRequest struct {
	Name      string
	Email     string
	Role      entity.Role
	ManagerID *int64
}

// LoginResult is a signed session for a user
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *entity.User `json:"user"`
}

// AccountService manages companies, users, and sessions
type AccountService interface {
	Signup(ctx context.Context, req SignupRequest) (*entity.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	ListUsers(ctx context.Context, companyID int64) ([]*entity.User, error)

	// AddUser creates a user with a temporary password and mails it to them
	AddUser(ctx context.Context, caller entity.Identity, req AddUserRequest) (*entity.User, error)
}

type accountServiceImpl struct {
	companyRepo port.CompanyRepository
	userRepo    port.UserRepository
	txManager   port.TransactionManager
	hasher      port.PasswordHasher
	tokens      port.TokenIssuer
	mailer      port.Mailer
	logger      Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(
	companyRepo port.CompanyRepository,
	userRepo port.UserRepository,
	txManager port.TransactionManager,
	hasher port.PasswordHasher,
	tokens port.TokenIssuer,
	mailer port.Mailer,
	logger Logger,
) AccountService {
	return &accountServiceImpl{
		companyRepo: companyRepo,
		userRepo:    userRepo,
		txManager:   txManager,
		hasher:      hasher,
		tokens:      tokens,
		mailer:      mailer,
		logger:      logger,
	}
}

// Signup creates the company and its Admin in one transaction
func (s *accountServiceImpl) Signup(ctx context.Context, req SignupRequest) (*entity.User, error) {
	companyName := utils.SanitizeString(req.CompanyName)
	email := normalizeEmail(req.Email)
	currency := utils.NormalizeCurrencyCode(req.DefaultCurrency)

	if companyName == "" || email == "" || req.Password == "" || currency == "" {
		return nil, validationError("companyName, email, password and default_currency are required")
	}
	if err := utils.ValidateEmail(email); err != nil {
		return nil, validationError("%v", err)
	}
	if err := utils.ValidateCurrencyCode(currency); err != nil {
		return nil, validationError("%v", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var admin *entity.User
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.ensureEmailFree(txCtx, email); err != nil {
			return err
		}

		company := &entity.Company{Name: companyName, DefaultCurrency: currency}
		if err := s.companyRepo.Create(txCtx, company); err != nil {
			return err
		}

		admin = &entity.User{
			CompanyID:    company.ID,
			Name:         "Admin",
			Email:        email,
			PasswordHash: hash,
			Role:         entity.RoleAdmin,
		}
		return s.userRepo.Create(txCtx, admin)
	})
	if err != nil {
		if !errors.Is(err, ErrEmailTaken) {
			s.logger.Error("Failed to sign up", "email", email, "error", err)
		}
		return nil, err
	}

	s.logger.Info("Company registered", "company_id", admin.CompanyID, "admin_id", admin.ID)
	return admin, nil
}

// Login verifies the password and issues a token
func (s *accountServiceImpl) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(entity.Identity{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CompanyID: user.CompanyID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// ListUsers returns the users of a company
func (s *accountServiceImpl) ListUsers(ctx context.Context, companyID int64) ([]*entity.User, error) {
	users, err := s.userRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// AddUser is restricted to admins. The invitation is sent before the
// transaction commits so a failed delivery leaves no orphaned account.
func (s *accountServiceImpl) AddUser(ctx context.Context, caller entity.Identity, req AddUserRequest) (*entity.User, error) {
	if caller.Role != entity.RoleAdmin {
		return nil, fmt.Errorf("%w: only admins can add users", ErrForbidden)
	}

	name := utils.SanitizeString(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || req.Role == "" {
		return nil, validationError("name, email and role are required")
	}
	if err := utils.ValidateEmail(email); err != nil {
		return nil, validationError("%v", err)
	}
	if !req.Role.IsValid() {
		return nil, validationError("unknown role %q", req.Role)
	}

	tempPassword := uuid.NewString()[:8]
	hash, err := s.hasher.Hash(tempPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		CompanyID:    caller.CompanyID,
		ManagerID:    req.ManagerID,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if user.Role == entity.RoleManager {
		user.ManagerID = nil
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.ensureEmailFree(txCtx, email); err != nil {
			return err
		}
		if err := s.checkManager(txCtx, caller.CompanyID, user.ManagerID); err != nil {
			return err
		}
		if err := s.userRepo.Create(txCtx, user); err != nil {
			return err
		}
		if err := s.mailer.SendInvitation(txCtx, email, tempPassword); err != nil {
			return fmt.Errorf("failed to send invitation: %w", err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrEmailTaken) && !errors.Is(err, ErrValidation) {
			s.logger.Error("Failed to add user", "email", email, "error", err)
		}
		return nil, err
	}

	s.logger.Info("User added", "user_id", user.ID, "company_id", user.CompanyID, "role", user.Role)
	return user, nil
}

func (s *accountServiceImpl) ensureEmailFree(ctx context.Context, email string) error {
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %s", ErrEmailTaken, email)
	}
	return nil
}

// checkManager requires managerID, when set, to be a Manager of the company
func (s *accountServiceImpl) checkManager(ctx context.Context, companyID int64, managerID *int64) error {
	if managerID == nil {
		return nil
	}
	manager, err := s.userRepo.GetByID(ctx, *managerID)
	if err != nil {
		return err
	}
	if manager == nil || manager.CompanyID != companyID || manager.Role != entity.RoleManager {
		return validationError("manager_id %d is not a manager of this company", *managerID)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
