package service

import (
	"context"
	"time"

	"verkstad/internal/domain"
	"verkstad/internal/events"
	"verkstad/internal/metrics"
	"verkstad/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type BookingService struct {
	repo           domain.Repository
	eventBus       domain.EventPublisher
	cache          domain.ListingCache
	commissionRate decimal.Decimal
	logger         *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, cache domain.ListingCache, commissionRate float64, logger *zerolog.Logger) *BookingService {
	if commissionRate <= 0 || commissionRate >= 1 {
		commissionRate = models.DefaultCommissionRate
	}
	return &BookingService{
		repo:           repo,
		eventBus:       eventBus,
		cache:          cache,
		commissionRate: decimal.NewFromFloat(commissionRate),
		logger:         logger,
	}
}

// AcceptOfferInput carries the booking parameters. TotalAmount may stay
// zero, in which case the offer price is billed.
type AcceptOfferInput struct {
	OfferID     string
	CustomerID  string
	ScheduledAt time.Time
	Notes       string
	TotalAmount decimal.Decimal
}

// AcceptOffer принимает предложение и создает бронь одной транзакцией.
// Комиссия площадки удерживается сразу.
func (s *BookingService) AcceptOffer(ctx context.Context, in AcceptOfferInput) (*models.Booking, error) {
	offer, err := s.repo.GetOffer(ctx, in.OfferID)
	if err != nil {
		return nil, err
	}

	total := in.TotalAmount
	if total.IsZero() {
		total = offer.Price
	}
	commission := total.Mul(s.commissionRate).Round(2)

	now := time.Now().UTC()
	booking := &models.Booking{
		ID:             uuid.NewString(),
		RequestID:      offer.RequestID,
		OfferID:        offer.ID,
		CustomerID:     in.CustomerID,
		WorkshopID:     offer.WorkshopID,
		ScheduledAt:    in.ScheduledAt,
		Status:         models.BookingStatusConfirmed,
		TotalAmount:    total,
		Commission:     commission,
		WorkshopAmount: total.Sub(commission),
		Notes:          in.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.AcceptOfferWithLock(ctx, booking); err != nil {
		return nil, err
	}

	metrics.IncBookingsCreated()
	s.publishEvent(events.EventOfferAccepted, booking)
	s.publishEvent(events.EventBookingCreated, booking)
	s.invalidateListing(ctx, booking.RequestID)

	return booking, nil
}

// UpdateBooking меняет статус брони и, опционально, время и заметки
func (s *BookingService) UpdateBooking(ctx context.Context, id, status string, scheduledAt *time.Time, notes *string) (*models.Booking, error) {
	if err := s.repo.UpdateBooking(ctx, id, status, scheduledAt, notes); err != nil {
		return nil, err
	}

	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingStatusChanged, booking)

	// Завершенная бронь закрывает и заявку
	if status == models.BookingStatusDone {
		if err := s.repo.UpdateRequestStatus(ctx, booking.RequestID, models.RequestStatusCompleted); err != nil {
			s.logger.Error().Err(err).Str("request_id", booking.RequestID).Msg("failed to complete request")
		}
	}

	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) GetCustomerBookings(ctx context.Context, customerID string) ([]models.Booking, error) {
	return s.repo.GetCustomerBookings(ctx, customerID)
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:  booking.ID,
		RequestID:  booking.RequestID,
		OfferID:    booking.OfferID,
		WorkshopID: booking.WorkshopID,
		CustomerID: booking.CustomerID,
		Status:     booking.Status,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) invalidateListing(ctx context.Context, requestID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateListing(ctx, requestID); err != nil {
		s.logger.Warn().Err(err).Str("request_id", requestID).Msg("listing cache invalidation failed")
	}
}
