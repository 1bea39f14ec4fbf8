package repository

import (
	"context"
	"errors"

	"wedding-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ErrStaleStatus means a guarded status update found the booking in a
// different status than the caller expected, or found no booking at all.
var ErrStaleStatus = errors.New("booking status changed or is terminal")

// Transactor runs fn against repositories bound to a single transaction.
// The transaction commits when fn returns nil. Calls do not nest: calling
// WithTx on the repositories passed to fn opens an independent transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx *Repository) error) error
}

type Repository struct {
	Booking        BookingRepository
	Payment        PaymentRepository
	Cancellation   CancellationRepository
	DesignItem     DesignItemRepository
	Project        ProjectRepository
	ServiceListing ServiceListingRepository

	Tx Transactor
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	tx := &pgTransactor{db: db, log: log}
	return newRepository(db, tx, log)
}

func newRepository(q database.Querier, tx Transactor, log *zap.Logger) *Repository {
	return &Repository{
		Booking:        NewBookingRepository(q, log),
		Payment:        NewPaymentRepository(q, log),
		Cancellation:   NewCancellationRepository(q, log),
		DesignItem:     NewDesignItemRepository(q, log),
		Project:        NewProjectRepository(q, log),
		ServiceListing: NewServiceListingRepository(q, log),
		Tx:             tx,
	}
}

type pgTransactor struct {
	db  database.PgxIface
	log *zap.Logger
}

func (t *pgTransactor) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	return database.WithTx(ctx, t.db, func(tx pgx.Tx) error {
		return fn(newRepository(tx, t, t.log))
	})
}
