package entity

import (
	"github.com/google/uuid"
)

// PlacedElement is an element placed in the 3D venue design.
type PlacedElement struct {
	Base
	ProjectID uuid.UUID  `db:"project_id"`
	BookingID *uuid.UUID `db:"booking_id"`
	IsBooked  bool       `db:"is_booked"`
}

// ProjectService links a service listing to a project's plan.
type ProjectService struct {
	Base
	ProjectID        uuid.UUID  `db:"project_id"`
	ServiceListingID uuid.UUID  `db:"service_listing_id"`
	BookingID        *uuid.UUID `db:"booking_id"`
	IsBooked         bool       `db:"is_booked"`
}
