package usecase

import (
	"context"
	"fmt"
	"time"

	"wedding-booking/internal/data/repository"
	"wedding-booking/internal/dto/request"
	"wedding-booking/internal/dto/response"
	"wedding-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CancellationService interface {
	// QuoteCancellation prices a couple-initiated cancellation of the booking
	// as of now without changing anything.
	QuoteCancellation(ctx context.Context, req *request.CancellationQuoteRequest) (*response.CancellationQuoteResponse, error)
}

type cancellationService struct {
	repo *repository.Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewCancellationService(repo *repository.Repository, log *zap.Logger) CancellationService {
	return &cancellationService{
		repo: repo,
		log:  log.With(zap.String("service", "cancellation")),
		now:  time.Now,
	}
}

func (s *cancellationService) QuoteCancellation(ctx context.Context, req *request.CancellationQuoteRequest) (*response.CancellationQuoteResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Cancellation quote validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("invalid booking ID format %s: %w", req.BookingID, err)
	}

	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", req.BookingID, err)
	}
	if booking == nil {
		return nil, fmt.Errorf("booking %s not found", req.BookingID)
	}

	if booking.Status.IsTerminal() {
		return nil, fmt.Errorf("cannot quote cancellation for booking in status %s", booking.Status)
	}

	booking.SelectedServices, err = s.repo.Booking.FindSelectedServices(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get selected services for booking %s: %w", req.BookingID, err)
	}

	booking.Payments, err = s.repo.Payment.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get payments for booking %s: %w", req.BookingID, err)
	}

	listing, err := s.repo.ServiceListing.FindByID(ctx, booking.ServiceListingID)
	if err != nil {
		return nil, fmt.Errorf("get service listing for booking %s: %w", req.BookingID, err)
	}
	if listing != nil && len(listing.CancellationFeeTiers) > 0 {
		if err := listing.CancellationFeeTiers.Validate(); err != nil {
			s.log.Warn("Service listing has invalid cancellation fee tiers, using defaults",
				zap.Error(err),
				zap.String("service_listing_id", listing.ID.String()),
			)
		}
	}

	now := s.now()
	outcome := ComputeCancellationOutcome(booking, listing, now)

	s.log.Info("Cancellation quoted",
		zap.String("booking_id", req.BookingID),
		zap.String("tier", outcome.Tier),
		zap.Float64("fee_amount", outcome.FeeAmount),
		zap.Float64("fee_difference", outcome.FeeDifference),
	)

	return &response.CancellationQuoteResponse{
		BookingID:             booking.ID.String(),
		Status:                booking.Status,
		ReservedDate:          booking.ReservedDate,
		DaysUntilReservedDate: outcome.DaysUntilReservedDate,
		TotalValue:            roundCurrency(booking.TotalValue()),
		Tier:                  outcome.Tier,
		FeePercentage:         outcome.FeePercentage,
		FeeAmount:             outcome.FeeAmount,
		AmountPaid:            outcome.AmountPaid,
		FeeDifference:         outcome.FeeDifference,
		RequiresPayment:       outcome.RequiresPayment,
		Reason:                outcome.Reason,
		QuotedAt:              now,
	}, nil
}
