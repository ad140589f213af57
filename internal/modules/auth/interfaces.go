package auth

import (
	"context"

	"boozstudio/internal/domain"
)

// AccountRepository is the slice of the account store auth needs.
type AccountRepository interface {
	Create(ctx context.Context, a *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type tokenIssuer interface {
	GenerateToken(accountID, email, role string) (string, error)
}
