package repository

import (
	"context"
	"sync/atomic"
	"time"

	"verkstad/internal/domain"
	"verkstad/internal/models"

	"github.com/rs/zerolog"
)

type FailoverListingCache struct {
	primary   domain.ListingCache
	fallback  domain.ListingCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverListingCache(primary, fallback domain.ListingCache, logger *zerolog.Logger) *FailoverListingCache {
	return &FailoverListingCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverListingCache) GetListing(ctx context.Context, requestID, viewKey string) ([]models.RankedOffer, error) {
	if !r.isDown.Load() {
		listing, err := r.primary.GetListing(ctx, requestID, viewKey)
		if err == nil {
			return listing, nil
		}
		r.logger.Error().Err(err).Msg("Primary listing cache failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		listing, err := r.primary.GetListing(ctx, requestID, viewKey)
		if err == nil {
			r.isDown.Store(false)
			return listing, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetListing(ctx, requestID, viewKey)
}

func (r *FailoverListingCache) SetListing(ctx context.Context, requestID, viewKey string, listing []models.RankedOffer) error {
	if !r.isDown.Load() {
		err := r.primary.SetListing(ctx, requestID, viewKey, listing)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary listing cache failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.SetListing(ctx, requestID, viewKey, listing)
}

func (r *FailoverListingCache) InvalidateListing(ctx context.Context, requestID string) error {
	if !r.isDown.Load() {
		err := r.primary.InvalidateListing(ctx, requestID)
		if err == nil {
			// Память могла накопить записи, пока Redis был недоступен.
			return r.fallback.InvalidateListing(ctx, requestID)
		}
		r.logger.Error().Err(err).Msg("Primary listing cache failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.InvalidateListing(ctx, requestID)
}
