package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wedding-booking/internal/data/entity"
	"wedding-booking/pkg/database"
	"wedding-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

// BookingFilter narrows a booking query. Zero-valued fields are ignored;
// time ranges are inclusive on both ends.
type BookingFilter struct {
	Statuses                []entity.BookingStatus
	Category                string
	ProjectID               *uuid.UUID
	ExcludeID               *uuid.UUID
	DependsOnVenueBookingID *uuid.UUID
	PendingVenueReplacement *bool
	HasCancellation         *bool

	DepositDueFrom *time.Time
	DepositDueTo   *time.Time
	FinalDueFrom   *time.Time
	FinalDueTo     *time.Time
	ReservedFrom   *time.Time
	ReservedTo     *time.Time
	// ReservedOn matches on the calendar date only.
	ReservedOn *time.Time

	// WithoutPaymentType excludes bookings that already hold a payment of this type.
	WithoutPaymentType entity.PaymentType

	Limit int
}

type BookingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	Find(ctx context.Context, filter BookingFilter) ([]*entity.Booking, error)
	FindSelectedServices(ctx context.Context, bookingID uuid.UUID) ([]entity.SelectedService, error)

	// MarkCancelled moves a non-terminal booking to a cancelled status and
	// resolves any pending venue dependency. It returns ErrStaleStatus when
	// the booking is missing or already terminal.
	MarkCancelled(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus) error
	// ScheduleFinalPayment moves a confirmed booking to pending_final_payment
	// with the given due date. It returns ErrStaleStatus if the booking is no
	// longer confirmed.
	ScheduleFinalPayment(ctx context.Context, bookingID uuid.UUID, finalDueDate time.Time) error
}

type bookingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewBookingRepository(db database.Querier, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingSelect = `
	SELECT b.id, b.couple_id, b.vendor_id, b.project_id, b.service_listing_id,
	       COALESCE(sl.category, ''), b.status, b.reserved_date, b.deposit_due_date,
	       b.final_due_date, b.depends_on_venue_booking_id, b.is_pending_venue_replacement,
	       b.grace_period_end_date, b.created_at, b.updated_at
	FROM bookings b
	LEFT JOIN service_listings sl ON sl.id = b.service_listing_id
`

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.CoupleID,
		&b.VendorID,
		&b.ProjectID,
		&b.ServiceListingID,
		&b.Category,
		&b.Status,
		&b.ReservedDate,
		&b.DepositDueDate,
		&b.FinalDueDate,
		&b.DependsOnVenueBookingID,
		&b.IsPendingVenueReplacement,
		&b.GracePeriodEndDate,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	booking, err := scanBooking(r.db.QueryRow(ctx, bookingSelect+` WHERE b.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) Find(ctx context.Context, filter BookingFilter) ([]*entity.Booking, error) {
	where, args := filter.where()
	query := bookingSelect + where + ` ORDER BY b.reserved_date, b.id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to find bookings",
			zap.Error(err),
			zap.Any("statuses", filter.Statuses),
		)
		return nil, fmt.Errorf("find bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}

func (f BookingFilter) where() (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		add("b.status = ANY($%d)", statuses)
	}
	if f.Category != "" {
		add("sl.category = $%d", f.Category)
	}
	if f.ProjectID != nil {
		add("b.project_id = $%d", *f.ProjectID)
	}
	if f.ExcludeID != nil {
		add("b.id <> $%d", *f.ExcludeID)
	}
	if f.DependsOnVenueBookingID != nil {
		add("b.depends_on_venue_booking_id = $%d", *f.DependsOnVenueBookingID)
	}
	if f.PendingVenueReplacement != nil {
		add("b.is_pending_venue_replacement = $%d", *f.PendingVenueReplacement)
	}
	if f.HasCancellation != nil {
		exists := "EXISTS (SELECT 1 FROM cancellations c WHERE c.booking_id = b.id)"
		if !*f.HasCancellation {
			exists = "NOT " + exists
		}
		conds = append(conds, exists)
	}
	if f.DepositDueFrom != nil {
		add("b.deposit_due_date >= $%d", *f.DepositDueFrom)
	}
	if f.DepositDueTo != nil {
		add("b.deposit_due_date <= $%d", *f.DepositDueTo)
	}
	if f.FinalDueFrom != nil {
		add("b.final_due_date >= $%d", *f.FinalDueFrom)
	}
	if f.FinalDueTo != nil {
		add("b.final_due_date <= $%d", *f.FinalDueTo)
	}
	if f.ReservedFrom != nil {
		add("b.reserved_date >= $%d", *f.ReservedFrom)
	}
	if f.ReservedTo != nil {
		add("b.reserved_date <= $%d", *f.ReservedTo)
	}
	if f.ReservedOn != nil {
		// The session runs in UTC (see database.InitDB), and the argument is
		// sent as a date so no zone shift applies to it either.
		add("b.reserved_date::date = $%d", pgtype.Date{Time: utils.DateOnly(*f.ReservedOn), Valid: true})
	}
	if f.WithoutPaymentType != "" {
		add("NOT EXISTS (SELECT 1 FROM payments p WHERE p.booking_id = b.id AND p.payment_type = $%d)", string(f.WithoutPaymentType))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *bookingRepository) FindSelectedServices(ctx context.Context, bookingID uuid.UUID) ([]entity.SelectedService, error) {
	query := `
		SELECT service_listing_id, total_price
		FROM booking_selected_services
		WHERE booking_id = $1
		ORDER BY position
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find selected services",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find selected services for booking %s: %w", bookingID.String(), err)
	}
	defer rows.Close()

	var services []entity.SelectedService
	for rows.Next() {
		var s entity.SelectedService
		if err := rows.Scan(&s.ServiceListingID, &s.TotalPrice); err != nil {
			r.log.Error("Failed to scan selected service row", zap.Error(err))
			return nil, fmt.Errorf("scan selected service row: %w", err)
		}
		services = append(services, s)
	}

	return services, rows.Err()
}

func terminalStatusStrings() []string {
	out := make([]string, len(entity.TerminalStatuses))
	for i, s := range entity.TerminalStatuses {
		out[i] = string(s)
	}
	return out
}

func (r *bookingRepository) MarkCancelled(ctx context.Context, bookingID uuid.UUID, status entity.BookingStatus) error {
	if !status.IsCancelled() {
		return fmt.Errorf("invalid cancellation status %s", status)
	}

	query := `
		UPDATE bookings
		SET status = $2, is_pending_venue_replacement = FALSE, updated_at = NOW()
		WHERE id = $1 AND status <> ALL($3)
	`

	result, err := r.db.Exec(ctx, query, bookingID, status, terminalStatusStrings())
	if err != nil {
		r.log.Error("Failed to mark booking cancelled",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("cancel booking %s: %w", bookingID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("cancel booking %s: %w", bookingID.String(), ErrStaleStatus)
	}

	return nil
}

func (r *bookingRepository) ScheduleFinalPayment(ctx context.Context, bookingID uuid.UUID, finalDueDate time.Time) error {
	query := `
		UPDATE bookings
		SET status = $2, final_due_date = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
	`

	result, err := r.db.Exec(ctx, query,
		bookingID,
		entity.BookingStatusPendingFinalPayment,
		finalDueDate,
		entity.BookingStatusConfirmed,
	)
	if err != nil {
		r.log.Error("Failed to schedule final payment",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.Time("final_due_date", finalDueDate),
		)
		return fmt.Errorf("schedule final payment for booking %s: %w", bookingID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("schedule final payment for booking %s: %w", bookingID.String(), ErrStaleStatus)
	}

	return nil
}
