package pricing

import (
	"fmt"
	"time"

	"boozstudio/internal/domain"
)

// CreditMode decides what a booking against a standing package costs.
type CreditMode string

const (
	// CreditCovered books for free when an active plan covers the class weekday.
	CreditCovered CreditMode = "covered"
	// CreditUniform debits the plan's table price on every booking.
	CreditUniform CreditMode = "uniform"
)

func ParseCreditMode(s string) (CreditMode, error) {
	switch m := CreditMode(s); m {
	case CreditCovered, CreditUniform:
		return m, nil
	default:
		return "", fmt.Errorf("unknown credit booking mode %q", s)
	}
}

type Policy struct {
	Prices       map[domain.PackageRef]int64
	SamplePrice  int64
	SampleHour   int
	PlanDuration int // days
	CreditMode   CreditMode
}

func Default() *Policy {
	return &Policy{
		Prices: map[domain.PackageRef]int64{
			domain.PackageLMV:    1099,
			domain.PackageMJ:     699,
			domain.PackageSuelta: 95,
		},
		SamplePrice:  150,
		SampleHour:   16,
		PlanDuration: 30,
		CreditMode:   CreditCovered,
	}
}

// PriceFor returns the table price of ref. Unknown tags are charged as a drop-in class.
func (p *Policy) PriceFor(ref domain.PackageRef) int64 {
	if v, ok := p.Prices[ref]; ok {
		return v
	}
	return p.Prices[domain.PackageSuelta]
}

// PlanExpiry is always counted from the purchase instant; remaining days are not carried over.
func (p *Policy) PlanExpiry(purchasedAt time.Time) time.Time {
	return purchasedAt.AddDate(0, 0, p.PlanDuration)
}

func (p *Policy) PlanName(kind domain.PackageRef) string {
	return "Paquete " + string(kind)
}

// CreditCost is the debit for booking a class against the account's standing plan.
func (p *Policy) CreditCost(kind domain.PackageRef) int64 {
	if p.CreditMode == CreditUniform {
		return p.PriceFor(kind)
	}
	return 0
}

// IsSampleSlot reports whether a class starting at t may be booked at the sample price.
func (p *Policy) IsSampleSlot(t time.Time) bool {
	return t.Hour() == p.SampleHour && t.Minute() == 0
}

// RefundFor is the amount credited back when a reservation is cancelled.
func (p *Policy) RefundFor(s *domain.Session) int64 {
	switch s.PaymentMethod {
	case domain.PaymentCredit, domain.PaymentSample:
		return s.AmountCharged
	default:
		return p.PriceFor(s.PackageRef)
	}
}
