package service

import (
	"context"
	"time"

	"verkstad/internal/bidding"
	"verkstad/internal/domain"
	"verkstad/internal/events"
	"verkstad/internal/matching"
	"verkstad/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type RequestService struct {
	repo          domain.Repository
	matcher       *matching.Matcher
	eventBus      domain.EventPublisher
	biddingWindow time.Duration
	logger        *zerolog.Logger
}

func NewRequestService(repo domain.Repository, matcher *matching.Matcher, eventBus domain.EventPublisher, biddingWindowHours int, logger *zerolog.Logger) *RequestService {
	if biddingWindowHours <= 0 {
		biddingWindowHours = models.DefaultBiddingWindowHours
	}
	return &RequestService{
		repo:          repo,
		matcher:       matcher,
		eventBus:      eventBus,
		biddingWindow: time.Duration(biddingWindowHours) * time.Hour,
		logger:        logger,
	}
}

// CreateRequest открывает заявку на торги. Окно фиксируется в момент создания.
func (s *RequestService) CreateRequest(ctx context.Context, req *models.Request) (*models.Request, error) {
	if err := req.Location.Validate(); err != nil {
		return nil, bidding.ErrInvalidOfferParameters
	}
	if req.CustomerID == "" || req.Description == "" {
		return nil, bidding.ErrInvalidOfferParameters
	}

	now := time.Now().UTC()
	req.ID = uuid.NewString()
	req.Status = models.RequestStatusInBidding
	req.CreatedAt = now
	req.UpdatedAt = now
	req.ExpiresAt = now.Add(s.biddingWindow)

	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info().Str("request_id", req.ID).Time("expires_at", req.ExpiresAt).Msg("request opened for bidding")
	s.notifyWorkshops(ctx, req, now)
	return req, nil
}

// notifyWorkshops publishes the request_created fan-out for workshops in
// radius. Notification is best effort and never fails the creation.
func (s *RequestService) notifyWorkshops(ctx context.Context, req *models.Request, now time.Time) {
	if s.eventBus == nil {
		return
	}

	workshops, err := s.repo.GetEligibleWorkshops(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("request_id", req.ID).Msg("failed to load workshops for notification")
		return
	}

	matched := s.matcher.FindEligibleWorkshops(req, workshops, 0, now)
	ids := make([]string, 0, len(matched))
	for _, w := range matched {
		ids = append(ids, w.ID)
	}

	payload := events.RequestEventPayload{
		RequestID:   req.ID,
		Status:      req.Status,
		WorkshopIDs: ids,
	}
	if err := s.eventBus.PublishJSON(events.EventRequestCreated, payload); err != nil {
		s.logger.Error().Err(err).Str("request_id", req.ID).Msg("publish event error")
	}
	s.logger.Info().Str("request_id", req.ID).Int("workshops", len(ids)).Msg("workshops notified")
}

func (s *RequestService) GetRequest(ctx context.Context, id string) (*models.Request, error) {
	return s.repo.GetRequest(ctx, id)
}

func (s *RequestService) GetCustomerRequests(ctx context.Context, customerID string) ([]models.Request, error) {
	return s.repo.GetCustomerRequests(ctx, customerID)
}

// CancelRequest закрывает заявку по инициативе клиента
func (s *RequestService) CancelRequest(ctx context.Context, id string) error {
	return s.repo.UpdateRequestStatus(ctx, id, models.RequestStatusCancelled)
}

// GetAvailableRequests возвращает открытые заявки в радиусе мастерской.
// origin позволяет мобильному клиенту переопределить сохраненную точку;
// radiusKm <= 0 означает радиус по умолчанию.
func (s *RequestService) GetAvailableRequests(ctx context.Context, workshopID string, origin *models.Coordinate, radiusKm float64) ([]models.AvailableRequest, error) {
	workshop, err := s.repo.GetWorkshop(ctx, workshopID)
	if err != nil {
		return nil, err
	}

	from := workshop.Location
	if origin != nil {
		if err := origin.Validate(); err != nil {
			return nil, bidding.ErrInvalidOfferParameters
		}
		from = *origin
	}

	now := time.Now().UTC()
	open, err := s.repo.GetOpenRequests(ctx, now)
	if err != nil {
		return nil, err
	}

	matched := s.matcher.FindEligibleRequests(workshop, from, open, radiusKm, now)

	requestIDs := make([]string, 0, len(matched))
	for _, m := range matched {
		requestIDs = append(requestIDs, m.Request.ID)
	}
	ownOffers, err := s.repo.GetWorkshopOffersForRequests(ctx, workshopID, requestIDs)
	if err != nil {
		return nil, err
	}

	available := make([]models.AvailableRequest, 0, len(matched))
	for _, m := range matched {
		entry := models.AvailableRequest{
			Request:    m.Request,
			DistanceKm: m.DistanceKm,
		}
		if offer, ok := ownOffers[m.Request.ID]; ok {
			own := offer
			entry.OwnOffer = &own
		}
		available = append(available, entry)
	}

	return available, nil
}
