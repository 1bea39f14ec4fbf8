package repository

import (
	"context"
	"errors"
	"fmt"

	"wedding-booking/internal/data/entity"
	"wedding-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ServiceListingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ServiceListing, error)
}

type serviceListingRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewServiceListingRepository(db database.Querier, log *zap.Logger) ServiceListingRepository {
	return &serviceListingRepository{
		db:  db,
		log: log.With(zap.String("repository", "service_listing")),
	}
}

func (r *serviceListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ServiceListing, error) {
	query := `
		SELECT id, vendor_id, name, category, cancellation_fee_tiers, created_at, updated_at
		FROM service_listings
		WHERE id = $1
	`

	var l entity.ServiceListing
	err := r.db.QueryRow(ctx, query, id).Scan(
		&l.ID,
		&l.VendorID,
		&l.Name,
		&l.Category,
		&l.CancellationFeeTiers, // jsonb, NULL leaves the map nil
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find service listing by ID",
			zap.Error(err),
			zap.String("service_listing_id", id.String()),
		)
		return nil, fmt.Errorf("find service listing by ID %s: %w", id.String(), err)
	}

	return &l, nil
}
