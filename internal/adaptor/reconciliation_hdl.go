package adaptor

import (
	"errors"
	"net/http"

	"wedding-booking/internal/dto/response"
	"wedding-booking/internal/scheduler"
	"wedding-booking/pkg/utils"

	"go.uber.org/zap"
)

type ReconciliationTrigger interface {
	TriggerNow() error
	Status() scheduler.Status
}

type ReconciliationHandler struct {
	trigger ReconciliationTrigger
	log     *zap.Logger
}

func NewReconciliationHandler(trigger ReconciliationTrigger, log *zap.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{
		trigger: trigger,
		log:     log.With(zap.String("handler", "reconciliation")),
	}
}

// Run handles POST /api/admin/reconciliation/run
func (h *ReconciliationHandler) Run(w http.ResponseWriter, r *http.Request) {
	err := h.trigger.TriggerNow()
	switch {
	case err == nil:
		h.log.Info("Reconciliation cycle triggered manually", zap.String("ip", r.RemoteAddr))
		utils.ResponseAccepted(w, "reconciliation cycle started", response.TriggerResponse{Triggered: true})
	case errors.Is(err, scheduler.ErrBusy), errors.Is(err, scheduler.ErrNotRunning):
		h.log.Warn("Manual reconciliation rejected", zap.Error(err))
		utils.ResponseConflict(w, err.Error())
	default:
		handleServiceError(h.log, w, err, "trigger reconciliation")
	}
}

// Status handles GET /api/admin/reconciliation/status
func (h *ReconciliationHandler) Status(w http.ResponseWriter, r *http.Request) {
	utils.ResponseSuccess(w, "success", statusToResponse(h.trigger.Status()))
}

func statusToResponse(st scheduler.Status) response.SchedulerStatusResponse {
	resp := response.SchedulerStatusResponse{
		Running:  st.Running,
		Busy:     st.Busy,
		Interval: st.Interval.String(),
	}
	if c := st.LastCycle; c != nil {
		cycle := &response.CycleResponse{
			StartedAt:  c.StartedAt,
			FinishedAt: c.FinishedAt,
			Checks:     make([]response.CheckReportResponse, 0, len(c.Reports)),
		}
		for _, r := range c.Reports {
			check := response.CheckReportResponse{
				Check:      r.Check,
				Matched:    r.Matched,
				Processed:  r.Processed,
				Skipped:    r.Skipped,
				Failed:     r.Failed,
				DurationMs: r.Duration.Milliseconds(),
			}
			if r.Err != nil {
				check.Error = r.Err.Error()
			}
			cycle.Checks = append(cycle.Checks, check)
		}
		resp.LastCycle = cycle
	}
	return resp
}
