package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleClient Role = "client"
	RoleCoach  Role = "coach"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleClient || r == RoleCoach || r == RoleAdmin
}

// Account is a registered user together with its credit balance and plan state.
type Account struct {
	ID           string `json:"id" gorm:"type:varchar(36);primaryKey"`
	Email        string `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash string `json:"-" gorm:"not null"`
	Role         Role   `json:"role" gorm:"type:varchar(16);not null;index"`
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	Phone        string `json:"phone,omitempty"`

	// Medical record, opaque to booking.
	BloodType        string `json:"blood_type,omitempty"`
	Allergies        string `json:"allergies,omitempty" gorm:"type:text"`
	Injuries         string `json:"injuries,omitempty" gorm:"type:text"`
	EmergencyContact string `json:"emergency_contact,omitempty"`

	CreditBalance      int64       `json:"credit_balance" gorm:"not null;default:0"`
	SubscriptionActive bool        `json:"subscription_active" gorm:"not null;default:false"`
	PlanName           *string     `json:"plan_name"`
	PackageKind        *PackageRef `json:"package_kind" gorm:"type:varchar(8)"`
	PlanExpiry         *time.Time  `json:"plan_expiry"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

func (a *Account) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.Email = NormalizeEmail(a.Email)
	return nil
}

// HasActivePlan reports whether the account holds an unexpired package at now.
func (a *Account) HasActivePlan(now time.Time) bool {
	return a.SubscriptionActive && a.PackageKind != nil && a.PlanExpiry != nil && a.PlanExpiry.After(now)
}

// CoversWeekday reports whether the active plan grants access to classes on d.
func (a *Account) CoversWeekday(now time.Time, d time.Weekday) bool {
	return a.HasActivePlan(now) && a.PackageKind.Covers(d)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
