package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wedding-booking/internal/data/entity"
	"wedding-booking/internal/data/repository"
	"wedding-booking/internal/notifier"
	"wedding-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// Confirmed bookings this close to their date move to pending_final_payment.
	finalPaymentLeadDays = 14
	// Default final payment deadline, counted back from the reserved date.
	finalDueOffsetDays = 7
	// Reminders go out for payments due within this many days.
	reminderWindowDays = 3
)

const (
	CheckFinalPaymentTransition = "final_payment_transition"
	CheckDepositOverdue         = "deposit_overdue"
	CheckFinalPaymentOverdue    = "final_payment_overdue"
	CheckVenueDependency        = "venue_dependency"
	CheckDepositReminder        = "deposit_reminder"
	CheckFinalPaymentReminder   = "final_payment_reminder"
)

const (
	reasonDepositOverdue      = "Deposit payment was not received by the due date"
	reasonFinalPaymentOverdue = "Final payment was not received by the due date"
	reasonVenueCancelled      = "The venue booking this service depended on was cancelled and no replacement venue was booked before the grace period ended"
)

// CheckReport summarises one check run. Matched counts candidates returned
// by the store, Processed those acted on, Skipped those that no longer met
// the predicate on re-check, Failed those whose action errored.
type CheckReport struct {
	Check     string        `json:"check"`
	Matched   int           `json:"matched"`
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

type ReconciliationService interface {
	TransitionToFinalPayment(ctx context.Context) (CheckReport, error)
	CancelOverdueDeposits(ctx context.Context) (CheckReport, error)
	CancelOverdueFinalPayments(ctx context.Context) (CheckReport, error)
	CancelVenueDependents(ctx context.Context) (CheckReport, error)
	RemindDepositsDue(ctx context.Context) (CheckReport, error)
	RemindFinalPaymentsDue(ctx context.Context) (CheckReport, error)

	// RunCycle runs every check once in order. A failing check is logged
	// and does not stop the ones after it.
	RunCycle(ctx context.Context) ([]CheckReport, error)
	// Drain blocks until notifications dispatched so far have finished.
	Drain()
}

type ReconciliationOption func(*reconciliationService)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ReconciliationOption {
	return func(s *reconciliationService) { s.now = now }
}

// WithNotifyTimeout bounds each detached notification call.
func WithNotifyTimeout(d time.Duration) ReconciliationOption {
	return func(s *reconciliationService) { s.notifyTimeout = d }
}

type reconciliationService struct {
	repo          *repository.Repository
	notifier      notifier.Notifier
	log           *zap.Logger
	now           func() time.Time
	notifyTimeout time.Duration
	pending       sync.WaitGroup
}

func NewReconciliationService(repo *repository.Repository, n notifier.Notifier, log *zap.Logger, opts ...ReconciliationOption) ReconciliationService {
	s := &reconciliationService{
		repo:          repo,
		notifier:      n,
		log:           log.With(zap.String("service", "reconciliation")),
		now:           time.Now,
		notifyTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *reconciliationService) RunCycle(ctx context.Context) ([]CheckReport, error) {
	checks := []struct {
		name string
		run  func(context.Context) (CheckReport, error)
	}{
		{CheckFinalPaymentTransition, s.TransitionToFinalPayment},
		{CheckDepositOverdue, s.CancelOverdueDeposits},
		{CheckFinalPaymentOverdue, s.CancelOverdueFinalPayments},
		{CheckVenueDependency, s.CancelVenueDependents},
		{CheckDepositReminder, s.RemindDepositsDue},
		{CheckFinalPaymentReminder, s.RemindFinalPaymentsDue},
	}

	start := time.Now()
	reports := make([]CheckReport, 0, len(checks))
	var errs []error

	for _, c := range checks {
		report, err := s.runCheck(ctx, c.name, c.run)
		report.Check = c.name
		if err != nil {
			report.Err = err
			errs = append(errs, err)
			s.log.Error("Reconciliation check failed",
				zap.String("check", c.name),
				zap.Error(err),
			)
		}
		reports = append(reports, report)
	}

	s.log.Info("Reconciliation cycle finished",
		zap.Duration("duration", time.Since(start)),
		zap.Int("failed_checks", len(errs)),
	)

	return reports, errors.Join(errs...)
}

// runCheck turns a panic inside a check into an error for that check only.
func (s *reconciliationService) runCheck(ctx context.Context, name string, run func(context.Context) (CheckReport, error)) (report CheckReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("PANIC recovered in reconciliation check",
				zap.String("check", name),
				zap.Any("error", r),
				zap.Stack("stack"),
			)
			err = fmt.Errorf("check %s panicked: %v", name, r)
		}
	}()
	return run(ctx)
}

func (s *reconciliationService) Drain() {
	s.pending.Wait()
}

// ==================== STATUS TRANSITION ====================

func (s *reconciliationService) TransitionToFinalPayment(ctx context.Context) (report CheckReport, err error) {
	report = CheckReport{Check: CheckFinalPaymentTransition}
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	now := s.now()
	until := utils.AddDays(now, finalPaymentLeadDays)

	bookings, err := s.repo.Booking.Find(ctx, repository.BookingFilter{
		Statuses:           []entity.BookingStatus{entity.BookingStatusConfirmed},
		ReservedFrom:       &now,
		ReservedTo:         &until,
		WithoutPaymentType: entity.PaymentTypeFinal,
	})
	if err != nil {
		return report, fmt.Errorf("find confirmed bookings approaching reserved date: %w", err)
	}
	report.Matched = len(bookings)

	for _, b := range bookings {
		if err := s.loadPayments(ctx, b); err != nil {
			report.Failed++
			continue
		}

		if b.Status != entity.BookingStatusConfirmed ||
			b.ReservedDate.Before(now) || b.ReservedDate.After(until) ||
			entity.HasPaymentType(b.Payments, entity.PaymentTypeFinal) {
			report.Skipped++
			continue
		}

		dueDate := utils.AddDays(b.ReservedDate, -finalDueOffsetDays)
		if b.FinalDueDate != nil {
			dueDate = *b.FinalDueDate
		}

		if dueDate.Before(now) {
			s.log.Warn("Final payment due date already passed, leaving booking confirmed",
				zap.String("booking_id", b.ID.String()),
				zap.Time("reserved_date", b.ReservedDate),
				zap.Time("final_due_date", dueDate),
			)
			report.Skipped++
			continue
		}

		if err := s.repo.Booking.ScheduleFinalPayment(ctx, b.ID, dueDate); err != nil {
			if errors.Is(err, repository.ErrStaleStatus) {
				s.log.Info("Booking changed before transition, skipping",
					zap.String("booking_id", b.ID.String()))
				report.Skipped++
				continue
			}
			s.log.Error("Failed to move booking to pending final payment",
				zap.Error(err),
				zap.String("booking_id", b.ID.String()),
			)
			report.Failed++
			continue
		}

		report.Processed++
		s.log.Info("Booking moved to pending final payment",
			zap.String("booking_id", b.ID.String()),
			zap.Time("final_due_date", dueDate),
		)
	}

	return report, nil
}

// ==================== OVERDUE PAYMENTS ====================

type overdueRule struct {
	check       string
	status      entity.BookingStatus
	paymentType entity.PaymentType
	reason      string
	dueDate     func(b *entity.Booking) *time.Time
	filter      func(now time.Time) repository.BookingFilter
}

var depositOverdue = overdueRule{
	check:       CheckDepositOverdue,
	status:      entity.BookingStatusPendingDepositPayment,
	paymentType: entity.PaymentTypeDeposit,
	reason:      reasonDepositOverdue,
	dueDate:     func(b *entity.Booking) *time.Time { return b.DepositDueDate },
	filter: func(now time.Time) repository.BookingFilter {
		return repository.BookingFilter{
			Statuses:           []entity.BookingStatus{entity.BookingStatusPendingDepositPayment},
			DepositDueTo:       &now,
			WithoutPaymentType: entity.PaymentTypeDeposit,
		}
	},
}

var finalPaymentOverdue = overdueRule{
	check:       CheckFinalPaymentOverdue,
	status:      entity.BookingStatusPendingFinalPayment,
	paymentType: entity.PaymentTypeFinal,
	reason:      reasonFinalPaymentOverdue,
	dueDate:     func(b *entity.Booking) *time.Time { return b.FinalDueDate },
	filter: func(now time.Time) repository.BookingFilter {
		return repository.BookingFilter{
			Statuses:           []entity.BookingStatus{entity.BookingStatusPendingFinalPayment},
			FinalDueTo:         &now,
			WithoutPaymentType: entity.PaymentTypeFinal,
		}
	},
}

func (s *reconciliationService) CancelOverdueDeposits(ctx context.Context) (CheckReport, error) {
	return s.cancelOverdue(ctx, depositOverdue)
}

func (s *reconciliationService) CancelOverdueFinalPayments(ctx context.Context) (CheckReport, error) {
	return s.cancelOverdue(ctx, finalPaymentOverdue)
}

func (s *reconciliationService) cancelOverdue(ctx context.Context, rule overdueRule) (report CheckReport, err error) {
	report = CheckReport{Check: rule.check}
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	now := s.now()
	bookings, err := s.repo.Booking.Find(ctx, rule.filter(now))
	if err != nil {
		return report, fmt.Errorf("find %s bookings: %w", rule.status, err)
	}
	report.Matched = len(bookings)

	for _, b := range bookings {
		if err := s.loadPayments(ctx, b); err != nil {
			report.Failed++
			continue
		}

		due := rule.dueDate(b)
		if b.Status != rule.status || due == nil || due.After(now) ||
			entity.HasPaymentType(b.Payments, rule.paymentType) {
			report.Skipped++
			continue
		}

		cancellation := &entity.Cancellation{
			BaseSimple:         entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
			BookingID:          b.ID,
			CancelledBy:        b.CoupleID,
			CancellationReason: rule.reason,
			RefundRequired:     false,
			RefundStatus:       entity.RefundStatusNotApplicable,
		}

		if !s.cancel(ctx, b, entity.BookingStatusCancelledByCouple, cancellation, &report) {
			continue
		}

		s.log.Info("Booking auto-cancelled",
			zap.String("check", rule.check),
			zap.String("booking_id", b.ID.String()),
			zap.Time("due_date", *due),
		)
		s.notifyCancelled(b, rule.reason)
	}

	return report, nil
}

// ==================== VENUE DEPENDENCIES ====================

func (s *reconciliationService) CancelVenueDependents(ctx context.Context) (report CheckReport, err error) {
	report = CheckReport{Check: CheckVenueDependency}
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	now := s.now()
	today := utils.DateOnly(now)
	hasCancellation := true

	venues, err := s.repo.Booking.Find(ctx, repository.BookingFilter{
		Statuses:        entity.CancelledStatuses,
		Category:        entity.CategoryVenue,
		HasCancellation: &hasCancellation,
	})
	if err != nil {
		return report, fmt.Errorf("find cancelled venue bookings: %w", err)
	}

	for _, venue := range venues {
		if !venue.Status.IsCancelled() || !venue.IsVenue() {
			continue
		}

		weddingDate, err := s.weddingDate(ctx, venue)
		if err != nil {
			report.Failed++
			continue
		}

		replaced, err := s.hasReplacementVenue(ctx, venue, weddingDate)
		if err != nil {
			report.Failed++
			continue
		}
		if replaced {
			s.log.Debug("Cancelled venue has a replacement, dependents kept",
				zap.String("venue_booking_id", venue.ID.String()))
			continue
		}

		s.cancelDependents(ctx, venue, weddingDate, today, now, &report)
	}

	return report, nil
}

func (s *reconciliationService) weddingDate(ctx context.Context, venue *entity.Booking) (time.Time, error) {
	project, err := s.repo.Project.FindByID(ctx, venue.ProjectID)
	if err != nil {
		s.log.Error("Failed to load project for cancelled venue",
			zap.Error(err),
			zap.String("venue_booking_id", venue.ID.String()),
			zap.String("project_id", venue.ProjectID.String()),
		)
		return time.Time{}, err
	}
	if project != nil && project.WeddingDate != nil {
		return *project.WeddingDate, nil
	}
	return venue.ReservedDate, nil
}

func (s *reconciliationService) hasReplacementVenue(ctx context.Context, venue *entity.Booking, weddingDate time.Time) (bool, error) {
	replacements, err := s.repo.Booking.Find(ctx, repository.BookingFilter{
		Statuses:   entity.ActiveVenueStatuses,
		Category:   entity.CategoryVenue,
		ProjectID:  &venue.ProjectID,
		ReservedOn: &weddingDate,
		ExcludeID:  &venue.ID,
		Limit:      1,
	})
	if err != nil {
		s.log.Error("Failed to look up replacement venue",
			zap.Error(err),
			zap.String("venue_booking_id", venue.ID.String()),
		)
		return false, err
	}
	return len(replacements) > 0, nil
}

func (s *reconciliationService) cancelDependents(ctx context.Context, venue *entity.Booking, weddingDate, today, now time.Time, report *CheckReport) {
	pending := true
	dependents, err := s.repo.Booking.Find(ctx, repository.BookingFilter{
		Statuses:                entity.NonTerminalStatuses,
		DependsOnVenueBookingID: &venue.ID,
		PendingVenueReplacement: &pending,
	})
	if err != nil {
		s.log.Error("Failed to find dependent bookings",
			zap.Error(err),
			zap.String("venue_booking_id", venue.ID.String()),
		)
		report.Failed++
		return
	}
	report.Matched += len(dependents)

	for _, b := range dependents {
		if b.Status.IsTerminal() || !b.IsPendingVenueReplacement ||
			b.DependsOnVenueBookingID == nil || *b.DependsOnVenueBookingID != venue.ID {
			report.Skipped++
			continue
		}

		deadline := weddingDate
		if b.GracePeriodEndDate != nil {
			deadline = *b.GracePeriodEndDate
		}
		if utils.DateOnly(deadline).After(today) {
			report.Skipped++
			continue
		}

		if err := s.loadPayments(ctx, b); err != nil {
			report.Failed++
			continue
		}

		totalPaid := roundCurrency(entity.SumPayments(b.Payments))
		cancellation := &entity.Cancellation{
			BaseSimple:         entity.BaseSimple{ID: uuid.New(), CreatedAt: now},
			BookingID:          b.ID,
			CancelledBy:        b.CoupleID,
			CancellationReason: reasonVenueCancelled,
			RefundRequired:     totalPaid > 0,
			RefundStatus:       entity.RefundStatusNotApplicable,
		}
		if totalPaid > 0 {
			cancellation.RefundAmount = &totalPaid
			cancellation.RefundStatus = entity.RefundStatusPending
		}

		// Recorded as a vendor-side cancellation: the venue failed, not the couple.
		if !s.cancel(ctx, b, entity.BookingStatusCancelledByVendor, cancellation, report) {
			continue
		}

		s.log.Info("Dependent booking auto-cancelled",
			zap.String("booking_id", b.ID.String()),
			zap.String("venue_booking_id", venue.ID.String()),
			zap.Float64("refund_amount", totalPaid),
		)
		s.notifyCancelled(b, reasonVenueCancelled)
	}
}

// ==================== REMINDERS ====================

func (s *reconciliationService) RemindDepositsDue(ctx context.Context) (CheckReport, error) {
	return s.remind(ctx, CheckDepositReminder,
		entity.BookingStatusPendingDepositPayment, entity.PaymentTypeDeposit,
		func(b *entity.Booking) *time.Time { return b.DepositDueDate },
		func(from, to time.Time) repository.BookingFilter {
			return repository.BookingFilter{DepositDueFrom: &from, DepositDueTo: &to}
		},
		s.notifier.SendDepositDueDateReminder,
	)
}

func (s *reconciliationService) RemindFinalPaymentsDue(ctx context.Context) (CheckReport, error) {
	return s.remind(ctx, CheckFinalPaymentReminder,
		entity.BookingStatusPendingFinalPayment, entity.PaymentTypeFinal,
		func(b *entity.Booking) *time.Time { return b.FinalDueDate },
		func(from, to time.Time) repository.BookingFilter {
			return repository.BookingFilter{FinalDueFrom: &from, FinalDueTo: &to}
		},
		s.notifier.SendFinalPaymentDueDateReminder,
	)
}

// remind never mutates state; repeated reminders are the sink's concern.
func (s *reconciliationService) remind(
	ctx context.Context,
	check string,
	status entity.BookingStatus,
	paymentType entity.PaymentType,
	dueDate func(*entity.Booking) *time.Time,
	window func(from, to time.Time) repository.BookingFilter,
	send func(context.Context, *entity.Booking) error,
) (report CheckReport, err error) {
	report = CheckReport{Check: check}
	start := time.Now()
	defer func() { report.Duration = time.Since(start) }()

	now := s.now()
	until := utils.AddDays(now, reminderWindowDays)

	filter := window(now, until)
	filter.Statuses = []entity.BookingStatus{status}
	filter.WithoutPaymentType = paymentType

	bookings, err := s.repo.Booking.Find(ctx, filter)
	if err != nil {
		return report, fmt.Errorf("find %s bookings due soon: %w", status, err)
	}
	report.Matched = len(bookings)

	for _, b := range bookings {
		if err := s.loadPayments(ctx, b); err != nil {
			report.Failed++
			continue
		}

		due := dueDate(b)
		if b.Status != status || due == nil || due.Before(now) || due.After(until) ||
			entity.HasPaymentType(b.Payments, paymentType) {
			report.Skipped++
			continue
		}

		s.dispatch(check, b, send)
		report.Processed++
	}

	return report, nil
}

// ==================== HELPERS ====================

func (s *reconciliationService) loadPayments(ctx context.Context, b *entity.Booking) error {
	payments, err := s.repo.Payment.FindByBookingID(ctx, b.ID)
	if err != nil {
		s.log.Error("Failed to load payments",
			zap.Error(err),
			zap.String("booking_id", b.ID.String()),
		)
		return err
	}
	b.Payments = payments
	return nil
}

// cancel writes the cancellation, the status change and the design item
// unlinking in one transaction, and updates report. It returns true only
// when the transaction committed.
func (s *reconciliationService) cancel(ctx context.Context, b *entity.Booking, status entity.BookingStatus, c *entity.Cancellation, report *CheckReport) bool {
	err := s.repo.Tx.WithTx(ctx, func(tx *repository.Repository) error {
		if err := tx.Cancellation.Create(ctx, c); err != nil {
			return err
		}
		if err := tx.Booking.MarkCancelled(ctx, b.ID, status); err != nil {
			return err
		}
		if _, err := tx.DesignItem.UnlinkBooking(ctx, b.ID); err != nil {
			return err
		}
		return nil
	})

	switch {
	case err == nil:
		b.Status = status
		b.IsPendingVenueReplacement = false
		report.Processed++
		return true
	case errors.Is(err, repository.ErrStaleStatus):
		s.log.Info("Booking changed before cancellation, skipping",
			zap.String("booking_id", b.ID.String()))
		report.Skipped++
	default:
		s.log.Error("Failed to auto-cancel booking",
			zap.Error(err),
			zap.String("booking_id", b.ID.String()),
			zap.String("target_status", string(status)),
		)
		report.Failed++
	}
	return false
}

func (s *reconciliationService) notifyCancelled(b *entity.Booking, reason string) {
	s.dispatch("auto_cancellation", b, func(ctx context.Context, b *entity.Booking) error {
		return s.notifier.SendAutoCancellationNotification(ctx, b, reason)
	})
}

// dispatch sends a notification in the background. The caller never waits
// on it and its failure is only logged.
func (s *reconciliationService) dispatch(kind string, b *entity.Booking, send func(context.Context, *entity.Booking) error) {
	snapshot := *b
	s.pending.Add(1)

	go func() {
		defer s.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("PANIC recovered in notification",
					zap.String("notification", kind),
					zap.String("booking_id", snapshot.ID.String()),
					zap.Any("error", r),
					zap.Stack("stack"),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()

		if err := send(ctx, &snapshot); err != nil {
			s.log.Warn("Failed to send notification",
				zap.Error(err),
				zap.String("notification", kind),
				zap.String("booking_id", snapshot.ID.String()),
			)
		}
	}()
}
