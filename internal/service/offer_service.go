package service

import (
	"context"
	"fmt"
	"time"

	"verkstad/internal/bidding"
	"verkstad/internal/domain"
	"verkstad/internal/events"
	"verkstad/internal/geo"
	"verkstad/internal/metrics"
	"verkstad/internal/models"
	"verkstad/internal/ranking"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type OfferService struct {
	repo     domain.Repository
	cache    domain.ListingCache
	eventBus domain.EventPublisher
	ranker   *ranking.Ranker
	logger   *zerolog.Logger
}

func NewOfferService(repo domain.Repository, cache domain.ListingCache, eventBus domain.EventPublisher, ranker *ranking.Ranker, logger *zerolog.Logger) *OfferService {
	return &OfferService{
		repo:     repo,
		cache:    cache,
		eventBus: eventBus,
		ranker:   ranker,
		logger:   logger,
	}
}

// viewKey кодирует параметры выдачи для ключа кэша
func viewKey(sortBy ranking.SortBy, f ranking.Filters) string {
	priceMin, priceMax := "", ""
	if f.PriceMin != nil {
		priceMin = f.PriceMin.String()
	}
	if f.PriceMax != nil {
		priceMax = f.PriceMax.String()
	}
	maxDistance, minRating := "", ""
	if f.MaxDistanceKm != nil {
		maxDistance = fmt.Sprintf("%g", *f.MaxDistanceKm)
	}
	if f.MinRating != nil {
		minRating = fmt.Sprintf("%g", *f.MinRating)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s", sortBy, priceMin, priceMax, maxDistance, minRating)
}

// ListOffers возвращает ранжированную выдачу предложений по заявке
func (s *OfferService) ListOffers(ctx context.Context, requestID string, sortBy ranking.SortBy, f ranking.Filters) ([]models.RankedOffer, error) {
	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	key := viewKey(sortBy, f)
	if s.cache != nil {
		if listing, err := s.cache.GetListing(ctx, requestID, key); err == nil && listing != nil {
			return listing, nil
		}
	}

	offers, err := s.repo.GetOffersForRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	workshopIDs := make([]string, 0, len(offers))
	for _, o := range offers {
		workshopIDs = append(workshopIDs, o.WorkshopID)
	}
	workshops, err := s.repo.GetWorkshopsByIDs(ctx, workshopIDs)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	annotated := ranking.AnnotateDistances(offers, workshops, req.Location)
	listing := s.ranker.Rank(annotated, sortBy, f)
	metrics.ObserveRankingDuration(time.Since(start))

	if s.cache != nil {
		if err := s.cache.SetListing(ctx, requestID, key, listing); err != nil {
			s.logger.Warn().Err(err).Str("request_id", requestID).Msg("listing cache write failed")
		}
	}

	return listing, nil
}

// ResolveWorkshopForUser maps a platform user id to the id of the workshop
// it owns. Bid submissions may identify the bidder either way, but
// everything past this lookup operates on workshop ids only.
func (s *OfferService) ResolveWorkshopForUser(ctx context.Context, userID string) (string, error) {
	workshop, err := s.repo.GetWorkshopByOwner(ctx, userID)
	if err != nil {
		return "", err
	}
	return workshop.ID, nil
}

// CreateOffer проводит предложение через валидацию и атомарную запись
func (s *OfferService) CreateOffer(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	if err := bidding.ValidateOfferParameters(offer.Price, offer.EstimatedDurationMinutes, offer.AvailableDates); err != nil {
		metrics.IncOffersRejected("invalid_parameters")
		return nil, err
	}

	if _, err := s.repo.GetWorkshop(ctx, offer.WorkshopID); err != nil {
		metrics.IncOffersRejected("workshop_not_found")
		return nil, err
	}

	now := time.Now().UTC()
	offer.ID = uuid.NewString()
	offer.Status = models.OfferStatusSent
	offer.CreatedAt = now
	offer.UpdatedAt = now

	if err := s.repo.CreateOfferWithLock(ctx, offer, now); err != nil {
		switch err {
		case bidding.ErrDuplicateOffer:
			metrics.IncOffersRejected("duplicate")
		case bidding.ErrRequestNotAcceptingOffers:
			metrics.IncOffersRejected("request_closed")
		}
		return nil, err
	}

	metrics.IncOffersCreated()
	s.publishOfferEvent(events.EventOfferCreated, offer)
	s.invalidateListing(ctx, offer.RequestID)

	return offer, nil
}

// GetOffer возвращает предложение вместе с мастерской и дистанцией до заявки
func (s *OfferService) GetOffer(ctx context.Context, id string) (*models.RankedOffer, error) {
	offer, err := s.repo.GetOffer(ctx, id)
	if err != nil {
		return nil, err
	}

	workshop, err := s.repo.GetWorkshop(ctx, offer.WorkshopID)
	if err != nil {
		return nil, err
	}

	req, err := s.repo.GetRequest(ctx, offer.RequestID)
	if err != nil {
		return nil, err
	}

	return &models.RankedOffer{
		Offer:      *offer,
		Workshop:   *workshop,
		DistanceKm: geo.DistanceKm(req.Location, workshop.Location),
	}, nil
}

// DeclineOffer переводит предложение в DECLINED, если заявка еще открыта для решений
func (s *OfferService) DeclineOffer(ctx context.Context, id string) error {
	offer, err := s.repo.GetOffer(ctx, id)
	if err != nil {
		return err
	}
	if offer.Status != models.OfferStatusSent {
		return bidding.ErrStaleTransition
	}

	req, err := s.repo.GetRequest(ctx, offer.RequestID)
	if err != nil {
		return err
	}
	if req.Status != models.RequestStatusInBidding && req.Status != models.RequestStatusBiddingClosed {
		return bidding.ErrRequestNotAcceptingOffers
	}

	if err := s.repo.UpdateOfferStatus(ctx, id, models.OfferStatusDeclined); err != nil {
		return err
	}

	s.invalidateListing(ctx, offer.RequestID)
	return nil
}

func (s *OfferService) publishOfferEvent(eventType string, offer *models.Offer) {
	if s.eventBus == nil {
		return
	}

	payload := events.OfferEventPayload{
		OfferID:    offer.ID,
		RequestID:  offer.RequestID,
		WorkshopID: offer.WorkshopID,
		Price:      offer.Price.String(),
		Status:     offer.Status,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("offer_id", offer.ID).Msg("publish event error")
	}
}

func (s *OfferService) invalidateListing(ctx context.Context, requestID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateListing(ctx, requestID); err != nil {
		s.logger.Warn().Err(err).Str("request_id", requestID).Msg("listing cache invalidation failed")
	}
}
