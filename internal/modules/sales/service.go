package sales

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"boozstudio/internal/domain"
	"boozstudio/internal/modules/pricing"
)

// ReservationSource lists every session that was ever assigned to a user.
type ReservationSource interface {
	ListReservations(ctx context.Context) ([]domain.Session, error)
}

type Service struct {
	sessions ReservationSource
	pricing  *pricing.Policy
	log      zerolog.Logger
}

func NewService(sessions ReservationSource, policy *pricing.Policy, log zerolog.Logger) *Service {
	return &Service{sessions: sessions, pricing: policy, log: log}
}

// Summary recomputes the report from the full reservation history on every call.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	rows, err := s.sessions.ListReservations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	sum := ComputeSalesSummary(rows, s.pricing)
	s.log.Debug().Int("rows", len(rows)).Int64("total_revenue", sum.TotalRevenue).Msg("sales summary computed")
	return &sum, nil
}
