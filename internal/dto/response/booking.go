package response

import (
	"time"

	"wedding-booking/internal/data/entity"
)

type CancellationQuoteResponse struct {
	BookingID             string               `json:"booking_id"`
	Status                entity.BookingStatus `json:"status"`
	ReservedDate          time.Time            `json:"reserved_date"`
	DaysUntilReservedDate int                  `json:"days_until_reserved_date"`
	TotalValue            float64              `json:"total_value"`
	Tier                  string               `json:"tier,omitempty"`
	FeePercentage         float64              `json:"fee_percentage"`
	FeeAmount             float64              `json:"fee_amount"`
	AmountPaid            float64              `json:"amount_paid"`
	FeeDifference         float64              `json:"fee_difference"`
	RequiresPayment       bool                 `json:"requires_payment"`
	Reason                string               `json:"reason,omitempty"`
	QuotedAt              time.Time            `json:"quoted_at"`
}
