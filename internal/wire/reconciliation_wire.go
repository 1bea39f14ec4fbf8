package wire

import (
	"wedding-booking/internal/adaptor"
	"wedding-booking/pkg/middleware"
	"wedding-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireReconciliation(
	r chi.Router,
	reconciliationHandler *adaptor.ReconciliationHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/reconciliation", func(r chi.Router) {
		r.Use(middleware.AdminToken(config.Admin.TokenHash, log))

		// POST /api/admin/reconciliation/run - start a cycle now
		r.Post("/run", reconciliationHandler.Run)

		// GET /api/admin/reconciliation/status - scheduler state and last cycle
		r.Get("/status", reconciliationHandler.Status)
	})
}
