package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentTypeDeposit         PaymentType = "deposit"
	PaymentTypeFinal           PaymentType = "final"
	PaymentTypeCancellationFee PaymentType = "cancellation_fee"
	PaymentTypeFull            PaymentType = "full"
)

type Payment struct {
	BaseSimple
	BookingID   uuid.UUID   `db:"booking_id"`
	Amount      float64     `db:"amount"`
	PaymentType PaymentType `db:"payment_type"`
}

// SumPayments totals the amounts of ps exactly.
func SumPayments(ps []*Payment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range ps {
		total = total.Add(decimal.NewFromFloat(p.Amount))
	}
	return total
}

// HasPaymentType reports whether any payment in ps is of type t.
func HasPaymentType(ps []*Payment, t PaymentType) bool {
	for _, p := range ps {
		if p.PaymentType == t {
			return true
		}
	}
	return false
}
