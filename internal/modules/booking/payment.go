package booking

import (
	"fmt"
	"time"

	"boozstudio/internal/domain"
	"boozstudio/internal/modules/pricing"
)

// Payment is one of PackagePurchase, SingleSession or CreditUse.
type Payment interface {
	isPayment()
}

// PackagePurchase buys (or renews) a plan together with the reservation.
type PackagePurchase struct {
	Kind domain.PackageRef
}

// SingleSession pays one class at the drop-in price, or at the sample price when Sample is set.
type SingleSession struct {
	Sample bool
}

// CreditUse books against the account's standing plan.
type CreditUse struct{}

func (PackagePurchase) isPayment() {}
func (SingleSession) isPayment()   {}
func (CreditUse) isPayment()       {}

// charge is what a payment resolves to for one slot.
type charge struct {
	cost   int64
	tag    domain.PackageRef
	method domain.PaymentMethod
	grant  bool
}

func resolveCharge(p Payment, policy *pricing.Policy, acc *domain.Account, startLocal time.Time, now time.Time) (charge, error) {
	switch pay := p.(type) {
	case PackagePurchase:
		if !pay.Kind.IsPlan() {
			return charge{}, fmt.Errorf("%w: package must be LMV or MJ", ErrMalformedSelection)
		}
		return charge{
			cost:   policy.PriceFor(pay.Kind),
			tag:    pay.Kind,
			method: domain.PaymentPackage,
			grant:  true,
		}, nil

	case SingleSession:
		if pay.Sample {
			if !policy.IsSampleSlot(startLocal) {
				return charge{}, ErrNotSampleSlot
			}
			return charge{cost: policy.SamplePrice, tag: domain.PackageSuelta, method: domain.PaymentSample}, nil
		}
		return charge{cost: policy.PriceFor(domain.PackageSuelta), tag: domain.PackageSuelta, method: domain.PaymentSingle}, nil

	case CreditUse:
		if !acc.HasActivePlan(now) {
			return charge{}, ErrNoActivePlan
		}
		if policy.CreditMode == pricing.CreditCovered && !acc.CoversWeekday(now, startLocal.Weekday()) {
			return charge{}, ErrNoActivePlan
		}
		kind := *acc.PackageKind
		return charge{cost: policy.CreditCost(kind), tag: kind, method: domain.PaymentCredit}, nil

	default:
		return charge{}, fmt.Errorf("%w: unknown payment %T", ErrMalformedSelection, p)
	}
}
