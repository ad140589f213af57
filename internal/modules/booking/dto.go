package booking

import (
	"time"

	"boozstudio/internal/domain"
)

// Selection identifies the class to book: either SessionID, or DateKey and Hour in studio time.
type Selection struct {
	SessionID string `json:"session_id"`
	DateKey   string `json:"date_key"`
	Hour      string `json:"hour"`
	ClassName string `json:"class_name"`
	Topic     string `json:"topic"`
}

func (s Selection) byID() bool { return s.SessionID != "" }

type ReserveRequest struct {
	Email      string
	Selection  Selection
	SpotNumber *int
	Payment    Payment
}

type Reservation struct {
	Session *domain.Session
	Account *domain.Account
	Charged int64
}

type Cancellation struct {
	Session *domain.Session
	Account *domain.Account
	Refund  int64
}

// ReserveBody is the JSON body of POST /reservations.
type ReserveBody struct {
	Email         string    `json:"email" binding:"required,email"`
	PackageID     string    `json:"package_id"`
	PaymentMethod string    `json:"payment_method"`
	Selection     Selection `json:"selection"`
	SpotNumber    *int      `json:"spot_number"`
}

type CancelBody struct {
	ReservationID string `json:"reservation_id" binding:"required"`
	UserEmail     string `json:"user_email" binding:"required,email"`
}

type ReservationResponse struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Topic         string               `json:"topic"`
	ScheduledAt   time.Time            `json:"scheduled_at"`
	PackageRef    domain.PackageRef    `json:"package_ref"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	AmountCharged int64                `json:"amount_charged"`
	SpotNumber    *int                 `json:"spot_number,omitempty"`
	Status        domain.SessionStatus `json:"status"`
}

func toReservationResponse(s *domain.Session, now time.Time) ReservationResponse {
	return ReservationResponse{
		ID:            s.ID,
		Name:          s.Name,
		Topic:         s.Topic,
		ScheduledAt:   s.ScheduledAt,
		PackageRef:    s.PackageRef,
		PaymentMethod: s.PaymentMethod,
		AmountCharged: s.AmountCharged,
		SpotNumber:    s.SpotNumber,
		Status:        s.EffectiveStatus(now),
	}
}
