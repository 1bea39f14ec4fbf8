package usecase

import (
	"time"

	"wedding-booking/internal/data/entity"
	"wedding-booking/pkg/utils"

	"github.com/shopspring/decimal"
)

// CancellationOutcome is what a couple would owe if they cancelled now.
type CancellationOutcome struct {
	FeeAmount             float64 `json:"fee_amount"`
	FeePercentage         float64 `json:"fee_percentage"`
	AmountPaid            float64 `json:"amount_paid"`
	FeeDifference         float64 `json:"fee_difference"`
	RequiresPayment       bool    `json:"requires_payment"`
	Tier                  string  `json:"tier,omitempty"`
	DaysUntilReservedDate int     `json:"days_until_reserved_date"`
	Reason                string  `json:"reason,omitempty"`
}

const reasonNoDepositYet = "No deposit has been paid yet, so the booking can be cancelled without a fee"

// ComputeCancellationOutcome prices a cancellation of booking at now using
// the listing's fee schedule. The default schedule applies when the listing
// has none, when its schedule does not validate, or when none of its tiers
// covers the booking. booking.SelectedServices and booking.Payments must be
// loaded.
func ComputeCancellationOutcome(booking *entity.Booking, listing *entity.ServiceListing, now time.Time) CancellationOutcome {
	paid := entity.SumPayments(booking.Payments).Round(2)
	amountPaid := roundCurrency(paid)
	days := utils.DaysUntil(booking.ReservedDate, now)

	if booking.Status == entity.BookingStatusPendingDepositPayment &&
		!entity.HasPaymentType(booking.Payments, entity.PaymentTypeDeposit) {
		return CancellationOutcome{
			AmountPaid:            amountPaid,
			DaysUntilReservedDate: days,
			Reason:                reasonNoDepositYet,
		}
	}

	label, rate, err := selectFeeTier(listing, days)
	if err != nil {
		return CancellationOutcome{
			AmountPaid:            amountPaid,
			DaysUntilReservedDate: days,
			Reason:                "No cancellation fee tier applies: " + err.Error(),
		}
	}

	fee := decimal.NewFromFloat(rate).Mul(booking.TotalValue()).Round(2)
	diff := decimal.Max(decimal.Zero, fee.Sub(paid))

	return CancellationOutcome{
		FeeAmount:             roundCurrency(fee),
		FeePercentage:         rate,
		AmountPaid:            amountPaid,
		FeeDifference:         roundCurrency(diff),
		RequiresPayment:       diff.IsPositive(),
		Tier:                  label,
		DaysUntilReservedDate: days,
	}
}

func selectFeeTier(listing *entity.ServiceListing, days int) (string, float64, error) {
	if listing != nil && len(listing.CancellationFeeTiers) > 0 {
		// Select fails on a broken label or rate as well as on a gap.
		if label, rate, err := listing.CancellationFeeTiers.Select(days); err == nil {
			return label, rate, nil
		}
	}
	return entity.DefaultFeeTiers().Select(days)
}

// roundCurrency rounds half away from zero to cents.
func roundCurrency(v decimal.Decimal) float64 {
	return v.Round(2).InexactFloat64()
}
