package entity

import (
	"github.com/google/uuid"
)

type ServiceListing struct {
	Base
	VendorID             uuid.UUID `db:"vendor_id"`
	Name                 string    `db:"name"`
	Category             string    `db:"category"`
	CancellationFeeTiers FeeTiers  `db:"cancellation_fee_tiers"`
}
