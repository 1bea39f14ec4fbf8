package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"wedding-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBookingFilter_Where_Empty(t *testing.T) {
	where, args := BookingFilter{}.where()

	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestBookingFilter_Where_NumbersPlaceholdersInOrder(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	exclude := uuid.New()
	noCancellation := false

	where, args := BookingFilter{
		Statuses:           []entity.BookingStatus{entity.BookingStatusPendingDepositPayment},
		ExcludeID:          &exclude,
		HasCancellation:    &noCancellation,
		DepositDueTo:       &now,
		WithoutPaymentType: entity.PaymentTypeDeposit,
	}.where()

	assert.Equal(t,
		" WHERE b.status = ANY($1) AND b.id <> $2"+
			" AND NOT EXISTS (SELECT 1 FROM cancellations c WHERE c.booking_id = b.id)"+
			" AND b.deposit_due_date <= $3"+
			" AND NOT EXISTS (SELECT 1 FROM payments p WHERE p.booking_id = b.id AND p.payment_type = $4)",
		where)
	assert.Equal(t, []any{
		[]string{"pending_deposit_payment"},
		exclude,
		now,
		"deposit",
	}, args)
}

func TestBookingFilter_Where_ReservedOnComparesDates(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC.
	local := time.Date(2026, 9, 11, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
	where, args := BookingFilter{Category: entity.CategoryVenue, ReservedOn: &local}.where()

	assert.Equal(t, " WHERE sl.category = $1 AND b.reserved_date::date = $2", where)
	assert.Equal(t, []any{
		"Venue",
		pgtype.Date{Time: time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC), Valid: true},
	}, args)
}

type execCall struct {
	sql  string
	args []any
}

// fakeQuerier records Exec calls and answers them with tag or err.
type fakeQuerier struct {
	tag   pgconn.CommandTag
	err   error
	calls []execCall
}

func (f *fakeQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (f *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (f *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return f.tag, f.err
}

func TestBookingRepository_MarkCancelled(t *testing.T) {
	id := uuid.New()

	t.Run("guards against terminal statuses", func(t *testing.T) {
		db := &fakeQuerier{tag: pgconn.NewCommandTag("UPDATE 1")}
		repo := NewBookingRepository(db, zap.NewNop())

		require.NoError(t, repo.MarkCancelled(t.Context(), id, entity.BookingStatusCancelledByVendor))

		require.Len(t, db.calls, 1)
		assert.Contains(t, db.calls[0].sql, "WHERE id = $1 AND status <> ALL($3)")
		assert.Contains(t, db.calls[0].sql, "is_pending_venue_replacement = FALSE")
		assert.Equal(t, []any{
			id,
			entity.BookingStatusCancelledByVendor,
			[]string{"cancelled_by_couple", "cancelled_by_vendor", "rejected", "completed"},
		}, db.calls[0].args)
	})

	t.Run("no row updated is stale", func(t *testing.T) {
		db := &fakeQuerier{tag: pgconn.NewCommandTag("UPDATE 0")}
		repo := NewBookingRepository(db, zap.NewNop())

		err := repo.MarkCancelled(t.Context(), id, entity.BookingStatusCancelledByCouple)
		assert.ErrorIs(t, err, ErrStaleStatus)
	})

	t.Run("exec failure is wrapped", func(t *testing.T) {
		cause := errors.New("conn reset")
		db := &fakeQuerier{err: cause}
		repo := NewBookingRepository(db, zap.NewNop())

		err := repo.MarkCancelled(t.Context(), id, entity.BookingStatusCancelledByCouple)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, ErrStaleStatus)
	})

	t.Run("rejects a non-cancelled status", func(t *testing.T) {
		db := &fakeQuerier{tag: pgconn.NewCommandTag("UPDATE 1")}
		repo := NewBookingRepository(db, zap.NewNop())

		assert.Error(t, repo.MarkCancelled(t.Context(), id, entity.BookingStatusCompleted))
		assert.Empty(t, db.calls)
	})
}

func TestBookingRepository_ScheduleFinalPayment(t *testing.T) {
	id := uuid.New()
	due := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)

	t.Run("only moves confirmed bookings", func(t *testing.T) {
		db := &fakeQuerier{tag: pgconn.NewCommandTag("UPDATE 1")}
		repo := NewBookingRepository(db, zap.NewNop())

		require.NoError(t, repo.ScheduleFinalPayment(t.Context(), id, due))

		require.Len(t, db.calls, 1)
		assert.Contains(t, db.calls[0].sql, "WHERE id = $1 AND status = $4")
		assert.Equal(t, []any{
			id,
			entity.BookingStatusPendingFinalPayment,
			due,
			entity.BookingStatusConfirmed,
		}, db.calls[0].args)
	})

	t.Run("no row updated is stale", func(t *testing.T) {
		db := &fakeQuerier{tag: pgconn.NewCommandTag("UPDATE 0")}
		repo := NewBookingRepository(db, zap.NewNop())

		err := repo.ScheduleFinalPayment(t.Context(), id, due)
		assert.ErrorIs(t, err, ErrStaleStatus)
	})
}
