// Package sales tallies reservations for the admin financial view.
package sales

import (
	"boozstudio/internal/domain"
	"boozstudio/internal/modules/pricing"
)

type Summary struct {
	LMV          int   `json:"LMV"`
	MJ           int   `json:"MJ"`
	SUELTA       int   `json:"SUELTA"`
	TotalRevenue int64 `json:"totalRevenue"`

	ChargedRevenue int64 `json:"charged_revenue"`
	CreditBookings int   `json:"credit_bookings"`
	Samples        int   `json:"samples"`
	Cancelled      int   `json:"cancelled"`
}

// ComputeSalesSummary counts live reservations per package and prices them at the table rate.
// Rows without a user and cancelled rows do not count towards revenue.
func ComputeSalesSummary(sessions []domain.Session, policy *pricing.Policy) Summary {
	var sum Summary
	for i := range sessions {
		s := &sessions[i]
		if !s.IsReservation() {
			continue
		}
		if s.Status == domain.SessionCancelled {
			sum.Cancelled++
			continue
		}

		switch s.PackageRef {
		case domain.PackageLMV:
			sum.LMV++
		case domain.PackageMJ:
			sum.MJ++
		default:
			sum.SUELTA++
		}

		switch s.PaymentMethod {
		case domain.PaymentCredit:
			sum.CreditBookings++
		case domain.PaymentSample:
			sum.Samples++
		}
		sum.ChargedRevenue += s.AmountCharged
	}

	sum.TotalRevenue = int64(sum.LMV)*policy.PriceFor(domain.PackageLMV) +
		int64(sum.MJ)*policy.PriceFor(domain.PackageMJ) +
		int64(sum.SUELTA)*policy.PriceFor(domain.PackageSuelta)
	return sum
}
