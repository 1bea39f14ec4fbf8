// Package notifier delivers booking reminders and cancellation notices.
// Delivery is best effort: callers log failures and move on.
package notifier

import (
	"context"
	"time"

	"wedding-booking/internal/data/entity"
)

type Notifier interface {
	SendAutoCancellationNotification(ctx context.Context, booking *entity.Booking, reason string) error
	SendDepositDueDateReminder(ctx context.Context, booking *entity.Booking) error
	SendFinalPaymentDueDateReminder(ctx context.Context, booking *entity.Booking) error
}

const (
	EventAutoCancelled           = "booking.auto_cancelled"
	EventDepositDueReminder      = "booking.deposit_due_reminder"
	EventFinalPaymentDueReminder = "booking.final_payment_due_reminder"
)

// BookingEvent is the payload sent for every notification.
type BookingEvent struct {
	EventType      string     `json:"event_type"`
	BookingID      string     `json:"booking_id"`
	CoupleID       string     `json:"couple_id"`
	VendorID       string     `json:"vendor_id"`
	ProjectID      string     `json:"project_id"`
	Status         string     `json:"status"`
	ReservedDate   time.Time  `json:"reserved_date"`
	DepositDueDate *time.Time `json:"deposit_due_date,omitempty"`
	FinalDueDate   *time.Time `json:"final_due_date,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

func newBookingEvent(eventType string, b *entity.Booking, reason string, now time.Time) BookingEvent {
	return BookingEvent{
		EventType:      eventType,
		BookingID:      b.ID.String(),
		CoupleID:       b.CoupleID.String(),
		VendorID:       b.VendorID.String(),
		ProjectID:      b.ProjectID.String(),
		Status:         string(b.Status),
		ReservedDate:   b.ReservedDate,
		DepositDueDate: b.DepositDueDate,
		FinalDueDate:   b.FinalDueDate,
		Reason:         reason,
		OccurredAt:     now.UTC(),
	}
}
