package adaptor

import (
	"wedding-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Cancellation   *CancellationHandler
	Reconciliation *ReconciliationHandler
}

func NewHandler(service *usecase.Service, trigger ReconciliationTrigger, log *zap.Logger) *Handler {
	return &Handler{
		Cancellation:   NewCancellationHandler(service.Cancellation, log),
		Reconciliation: NewReconciliationHandler(trigger, log),
	}
}
