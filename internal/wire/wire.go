package wire

import (
	"net/http"

	"wedding-booking/internal/adaptor"
	"wedding-booking/internal/data/repository"
	"wedding-booking/internal/notifier"
	"wedding-booking/internal/scheduler"
	"wedding-booking/internal/usecase"
	"wedding-booking/pkg/middleware"
	"wedding-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// App holds the assembled application.
type App struct {
	Router    *chi.Mux
	Service   *usecase.Service
	Scheduler *scheduler.Scheduler
}

// Wiring builds services, the scheduler and the HTTP router.
func Wiring(repo *repository.Repository, n notifier.Notifier, config *utils.Config, logger *zap.Logger) *App {
	service := usecase.NewService(repo, n, config, logger)
	sched := scheduler.New(service.Reconciliation, config.Scheduler.Interval, logger)
	handler := adaptor.NewHandler(service, sched, logger)

	return &App{
		Router:    setupRouter(handler, config, logger),
		Service:   service,
		Scheduler: sched,
	}
}

func setupRouter(handler *adaptor.Handler, config *utils.Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))

	wireBooking(r, handler.Cancellation)
	wireReconciliation(r, handler.Reconciliation, config, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
