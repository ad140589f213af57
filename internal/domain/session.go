package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	SessionOpen      SessionStatus = "open"
	SessionActive    SessionStatus = "active"
	SessionCancelled SessionStatus = "cancelled"
	// SessionCompleted is never stored, see EffectiveStatus.
	SessionCompleted SessionStatus = "completed"
)

type PaymentMethod string

const (
	PaymentPackage PaymentMethod = "package"
	PaymentSingle  PaymentMethod = "single"
	PaymentSample  PaymentMethod = "sample"
	PaymentCredit  PaymentMethod = "credit"
)

// Session is one class occurrence. With UserID nil it is an open slot, otherwise a reservation.
type Session struct {
	ID          string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Topic       string    `json:"topic"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	ScheduledAt time.Time `json:"scheduled_at" gorm:"not null;index"`

	// Category is the class category chosen when the slot was authored.
	Category PackageRef `json:"category" gorm:"type:varchar(8);not null"`
	// PackageRef equals Category on open slots and holds the payment tag on reservations.
	PackageRef PackageRef `json:"package_ref" gorm:"type:varchar(8);not null;index"`

	UserID        *string       `json:"user_id" gorm:"type:varchar(36);index"`
	Status        SessionStatus `json:"status" gorm:"type:varchar(16);not null;index"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty" gorm:"type:varchar(16)"`
	AmountCharged int64         `json:"amount_charged" gorm:"not null;default:0"`

	Seat       *int    `json:"seat,omitempty"`
	SpotNumber *int    `json:"spot_number,omitempty"`
	SlotKey    *string `json:"-" gorm:"uniqueIndex"`
	SpotKey    *string `json:"-" gorm:"uniqueIndex"`

	Color    string `json:"color"`
	ImageURL string `json:"image_url,omitempty"`

	BookedAt    *time.Time `json:"booked_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Session) TableName() string { return "sessions" }

func (s *Session) BeforeCreate(_ *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (s *Session) IsReservation() bool {
	return s.UserID != nil
}

// EffectiveStatus derives "completed" for active reservations whose start has passed.
func (s *Session) EffectiveStatus(now time.Time) SessionStatus {
	if s.Status == SessionActive && s.ScheduledAt.Before(now) {
		return SessionCompleted
	}
	return s.Status
}

// SlotKey is the natural key of a catalog-generated open slot.
func SlotKey(name string, category PackageRef, at time.Time, seat int) string {
	return fmt.Sprintf("%s|%s|%s|%d", name, category, at.UTC().Format(time.RFC3339), seat)
}

// SpotKey guards a bed number at a start time among active reservations.
func SpotKey(at time.Time, spot int) string {
	return fmt.Sprintf("%s|%d", at.UTC().Format(time.RFC3339), spot)
}
