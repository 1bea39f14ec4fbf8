package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPendingDepositPayment BookingStatus = "pending_deposit_payment"
	BookingStatusConfirmed             BookingStatus = "confirmed"
	BookingStatusPendingFinalPayment   BookingStatus = "pending_final_payment"
	BookingStatusCompleted             BookingStatus = "completed"
	BookingStatusCancelledByCouple     BookingStatus = "cancelled_by_couple"
	BookingStatusCancelledByVendor     BookingStatus = "cancelled_by_vendor"
	BookingStatusRejected              BookingStatus = "rejected"
)

// CategoryVenue is the service listing category that other bookings may depend on.
const CategoryVenue = "Venue"

// TerminalStatuses never transition again.
var TerminalStatuses = []BookingStatus{
	BookingStatusCancelledByCouple,
	BookingStatusCancelledByVendor,
	BookingStatusRejected,
	BookingStatusCompleted,
}

// CancelledStatuses are the terminal states reached through a cancellation.
var CancelledStatuses = []BookingStatus{
	BookingStatusCancelledByCouple,
	BookingStatusCancelledByVendor,
}

// ActiveVenueStatuses are the statuses in which a venue booking counts as a replacement.
var ActiveVenueStatuses = []BookingStatus{
	BookingStatusPendingDepositPayment,
	BookingStatusConfirmed,
	BookingStatusPendingFinalPayment,
	BookingStatusCompleted,
}

// NonTerminalStatuses is the complement of TerminalStatuses.
var NonTerminalStatuses = []BookingStatus{
	BookingStatusPendingDepositPayment,
	BookingStatusConfirmed,
	BookingStatusPendingFinalPayment,
}

func (s BookingStatus) IsTerminal() bool {
	return s.in(TerminalStatuses)
}

func (s BookingStatus) IsCancelled() bool {
	return s.in(CancelledStatuses)
}

func (s BookingStatus) in(set []BookingStatus) bool {
	for _, st := range set {
		if s == st {
			return true
		}
	}
	return false
}

// SelectedService is one priced line of a booking, kept in insertion order.
type SelectedService struct {
	ServiceListingID uuid.UUID `db:"service_listing_id"`
	TotalPrice       float64   `db:"total_price"`
}

type Booking struct {
	Base
	CoupleID                  uuid.UUID     `db:"couple_id"`
	VendorID                  uuid.UUID     `db:"vendor_id"`
	ProjectID                 uuid.UUID     `db:"project_id"`
	ServiceListingID          uuid.UUID     `db:"service_listing_id"`
	Category                  string        `db:"category"`
	Status                    BookingStatus `db:"status"`
	ReservedDate              time.Time     `db:"reserved_date"`
	DepositDueDate            *time.Time    `db:"deposit_due_date"`
	FinalDueDate              *time.Time    `db:"final_due_date"`
	DependsOnVenueBookingID   *uuid.UUID    `db:"depends_on_venue_booking_id"`
	IsPendingVenueReplacement bool          `db:"is_pending_venue_replacement"`
	GracePeriodEndDate        *time.Time    `db:"grace_period_end_date"`

	// Loaded on demand.
	SelectedServices []SelectedService `db:"-"`
	Payments         []*Payment        `db:"-"`
}

// TotalValue sums the selected services' prices.
func (b *Booking) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, s := range b.SelectedServices {
		total = total.Add(decimal.NewFromFloat(s.TotalPrice))
	}
	return total
}

func (b *Booking) IsVenue() bool {
	return b.Category == CategoryVenue
}
