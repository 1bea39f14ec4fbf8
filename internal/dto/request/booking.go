package request

type CancellationQuoteRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
}
