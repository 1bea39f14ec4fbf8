package wire

import (
	"wedding-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBooking(r chi.Router, cancellationHandler *adaptor.CancellationHandler) {
	// GET /api/bookings/{id}/cancellation-quote - fee a couple would owe if cancelling now
	r.Get("/api/bookings/{id}/cancellation-quote", cancellationHandler.GetQuote)
}
