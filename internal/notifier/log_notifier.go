package notifier

import (
	"context"
	"time"

	"wedding-booking/internal/data/entity"

	"go.uber.org/zap"
)

// LogNotifier writes notifications to the log. Used in development and
// whenever no broker is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.With(zap.String("component", "notifier"))}
}

func (n *LogNotifier) emit(e BookingEvent) {
	n.log.Info("Notification",
		zap.String("event_type", e.EventType),
		zap.String("booking_id", e.BookingID),
		zap.String("couple_id", e.CoupleID),
		zap.String("status", e.Status),
		zap.Time("reserved_date", e.ReservedDate),
		zap.String("reason", e.Reason),
	)
}

func (n *LogNotifier) SendAutoCancellationNotification(_ context.Context, b *entity.Booking, reason string) error {
	n.emit(newBookingEvent(EventAutoCancelled, b, reason, time.Now()))
	return nil
}

func (n *LogNotifier) SendDepositDueDateReminder(_ context.Context, b *entity.Booking) error {
	n.emit(newBookingEvent(EventDepositDueReminder, b, "", time.Now()))
	return nil
}

func (n *LogNotifier) SendFinalPaymentDueDateReminder(_ context.Context, b *entity.Booking) error {
	n.emit(newBookingEvent(EventFinalPaymentDueReminder, b, "", time.Now()))
	return nil
}
