package repository

import (
	"context"
	"fmt"

	"wedding-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DesignItemRepository covers the placed_elements and project_services rows
// that tie a venue design to a paid booking.
type DesignItemRepository interface {
	// UnlinkBooking clears booking_id and is_booked on every design item of
	// the booking and returns how many rows changed.
	UnlinkBooking(ctx context.Context, bookingID uuid.UUID) (int64, error)
}

type designItemRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewDesignItemRepository(db database.Querier, log *zap.Logger) DesignItemRepository {
	return &designItemRepository{
		db:  db,
		log: log.With(zap.String("repository", "design_item")),
	}
}

func (r *designItemRepository) UnlinkBooking(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	var total int64
	for _, table := range []string{"placed_elements", "project_services"} {
		query := fmt.Sprintf(`
			UPDATE %s
			SET booking_id = NULL, is_booked = FALSE, updated_at = NOW()
			WHERE booking_id = $1
		`, table)

		result, err := r.db.Exec(ctx, query, bookingID)
		if err != nil {
			r.log.Error("Failed to unlink design items",
				zap.Error(err),
				zap.String("table", table),
				zap.String("booking_id", bookingID.String()),
			)
			return total, fmt.Errorf("unlink %s from booking %s: %w", table, bookingID.String(), err)
		}
		total += result.RowsAffected()
	}

	return total, nil
}
