package repository

import (
	"context"
	"fmt"

	"wedding-booking/internal/data/entity"
	"wedding-booking/pkg/database"

	"go.uber.org/zap"
)

type CancellationRepository interface {
	Create(ctx context.Context, cancellation *entity.Cancellation) error
}

type cancellationRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewCancellationRepository(db database.Querier, log *zap.Logger) CancellationRepository {
	return &cancellationRepository{
		db:  db,
		log: log.With(zap.String("repository", "cancellation")),
	}
}

// Create inserts the cancellation. booking_id is unique, so a second
// cancellation for the same booking fails and rolls back its transaction.
func (r *cancellationRepository) Create(ctx context.Context, c *entity.Cancellation) error {
	query := `
		INSERT INTO cancellations (
			id, booking_id, cancelled_by, cancellation_reason, cancellation_fee,
			cancellation_fee_payment_id, refund_required, refund_amount, refund_status,
			refund_method, refund_notes, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(ctx, query,
		c.ID,
		c.BookingID,
		c.CancelledBy,
		c.CancellationReason,
		c.CancellationFee,
		c.CancellationFeePaymentID,
		c.RefundRequired,
		c.RefundAmount,
		c.RefundStatus,
		c.RefundMethod,
		c.RefundNotes,
		c.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create cancellation",
			zap.Error(err),
			zap.String("booking_id", c.BookingID.String()),
		)
		return fmt.Errorf("create cancellation for booking %s: %w", c.BookingID.String(), err)
	}

	return nil
}
