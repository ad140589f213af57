package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"boozstudio/internal/domain"
	"boozstudio/internal/repository"
)

// Service registers clients and issues access tokens.
type Service struct {
	accounts AccountRepository
	jwt      tokenIssuer
	log      zerolog.Logger
}

func NewService(accounts AccountRepository, jwt tokenIssuer, log zerolog.Logger) *Service {
	return &Service{accounts: accounts, jwt: jwt, log: log}
}

// Register creates a client account with zero balance and no plan, and logs it in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	email := domain.NormalizeEmail(req.Email)
	if len(req.Password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	exists, err := s.accounts.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acc := &domain.Account{
		Email:            email,
		PasswordHash:     string(hash),
		Role:             domain.RoleClient,
		Name:             strings.TrimSpace(req.Name),
		Surname:          strings.TrimSpace(req.Surname),
		Phone:            strings.TrimSpace(req.Phone),
		BloodType:        req.BloodType,
		Allergies:        req.Allergies,
		Injuries:         req.Injuries,
		EmergencyContact: req.EmergencyContact,
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		// lost a race with a concurrent registration
		if repository.IsUniqueViolation(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.log.Info().Str("account_id", acc.ID).Str("email", acc.Email).Msg("account registered")
	return s.issue(acc)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	acc, err := s.accounts.GetByEmail(ctx, domain.NormalizeEmail(req.Email))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}

	return s.issue(acc)
}

// Me returns the caller's account.
func (s *Service) Me(ctx context.Context, accountID string) (*domain.Account, error) {
	acc, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return acc, nil
}

func (s *Service) issue(acc *domain.Account) (*AuthResult, error) {
	token, err := s.jwt.GenerateToken(acc.ID, acc.Email, string(acc.Role))
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &AuthResult{Account: acc, Token: token}, nil
}
