package ledger

import (
	"strings"
	"time"

	"boozstudio/internal/domain"
)

// MinGrant is the smallest top-up staff may grant.
const MinGrant int64 = 50

// Entry describes why a balance moved.
type Entry struct {
	Type      domain.LedgerEntryType
	Reason    string
	SessionID *string
	Package   *domain.PackageRef
}

type PurchasePackageRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Package string `json:"package" binding:"required"`
}

// UpdateProfileRequest carries the contact and medical fields a coach may edit.
// Omitted fields are left unchanged.
type UpdateProfileRequest struct {
	Name             *string `json:"name" binding:"omitempty,min=1,max=100"`
	Surname          *string `json:"surname" binding:"omitempty,max=100"`
	Phone            *string `json:"phone" binding:"omitempty,max=30"`
	BloodType        *string `json:"blood_type" binding:"omitempty,max=5"`
	Allergies        *string `json:"allergies" binding:"omitempty,max=2000"`
	Injuries         *string `json:"injuries" binding:"omitempty,max=2000"`
	EmergencyContact *string `json:"emergency_contact" binding:"omitempty,max=200"`
}

func (r UpdateProfileRequest) fields() map[string]interface{} {
	out := make(map[string]interface{})
	set := func(col string, v *string) {
		if v != nil {
			out[col] = strings.TrimSpace(*v)
		}
	}
	set("name", r.Name)
	set("surname", r.Surname)
	set("phone", r.Phone)
	set("blood_type", r.BloodType)
	set("allergies", r.Allergies)
	set("injuries", r.Injuries)
	set("emergency_contact", r.EmergencyContact)
	return out
}

type GrantCreditRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Reason string `json:"reason"`
}

type ReservationView struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Topic         string               `json:"topic"`
	ScheduledAt   time.Time            `json:"scheduled_at"`
	PackageRef    domain.PackageRef    `json:"package_ref"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	AmountCharged int64                `json:"amount_charged"`
	SpotNumber    *int                 `json:"spot_number,omitempty"`
	Status        domain.SessionStatus `json:"status"`
	Cancellable   bool                 `json:"cancellable"`
	Refund        int64                `json:"refund"`
}

type AccountView struct {
	Account      *domain.Account      `json:"account"`
	PlanActive   bool                 `json:"plan_active"`
	Reservations []ReservationView    `json:"reservations"`
	Ledger       []domain.LedgerEntry `json:"ledger"`
}
