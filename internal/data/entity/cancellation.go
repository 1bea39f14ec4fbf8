package entity

import (
	"github.com/google/uuid"
)

type RefundStatus string

const (
	RefundStatusPending       RefundStatus = "pending"
	RefundStatusNotApplicable RefundStatus = "not_applicable"
	RefundStatusProcessed     RefundStatus = "processed"
)

// Cancellation is written once, in the same transaction as the booking's
// move into a cancelled status.
type Cancellation struct {
	BaseSimple
	BookingID                uuid.UUID    `db:"booking_id"`
	CancelledBy              uuid.UUID    `db:"cancelled_by"`
	CancellationReason       string       `db:"cancellation_reason"`
	CancellationFee          *float64     `db:"cancellation_fee"`
	CancellationFeePaymentID *uuid.UUID   `db:"cancellation_fee_payment_id"`
	RefundRequired           bool         `db:"refund_required"`
	RefundAmount             *float64     `db:"refund_amount"`
	RefundStatus             RefundStatus `db:"refund_status"`
	RefundMethod             *string      `db:"refund_method"`
	RefundNotes              *string      `db:"refund_notes"`
}
