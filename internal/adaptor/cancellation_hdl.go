package adaptor

import (
	"net/http"

	"wedding-booking/internal/dto/request"
	"wedding-booking/internal/usecase"
	"wedding-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CancellationHandler struct {
	service usecase.CancellationService
	log     *zap.Logger
}

func NewCancellationHandler(service usecase.CancellationService, log *zap.Logger) *CancellationHandler {
	return &CancellationHandler{
		service: service,
		log:     log.With(zap.String("handler", "cancellation")),
	}
}

// GetQuote handles GET /api/bookings/{id}/cancellation-quote
func (h *CancellationHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "id")
	if bookingID == "" {
		utils.ResponseBadRequest(w, "Booking ID is required", nil)
		return
	}

	quote, err := h.service.QuoteCancellation(r.Context(), &request.CancellationQuoteRequest{BookingID: bookingID})
	if err != nil {
		handleServiceError(h.log, w, err, "quote cancellation")
		return
	}

	utils.ResponseSuccess(w, "success", quote)
}
