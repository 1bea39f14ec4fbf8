package usecase

import (
	"wedding-booking/internal/data/repository"
	"wedding-booking/internal/notifier"
	"wedding-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Cancellation   CancellationService
	Reconciliation ReconciliationService
}

func NewService(repo *repository.Repository, n notifier.Notifier, config *utils.Config, log *zap.Logger) *Service {
	return &Service{
		Cancellation: NewCancellationService(repo, log),
		Reconciliation: NewReconciliationService(repo, n, log,
			WithNotifyTimeout(config.Notifier.Timeout),
		),
	}
}
