package catalog

import (
	"context"
	"time"

	"boozstudio/internal/domain"
)

type SessionRepository interface {
	Create(ctx context.Context, s *domain.Session) error
	CreateIgnoringDuplicates(ctx context.Context, sessions []domain.Session) (int64, error)
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	ListBetween(ctx context.Context, from, to time.Time, includeReserved bool) ([]domain.Session, error)
	Delete(ctx context.Context, id string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}
