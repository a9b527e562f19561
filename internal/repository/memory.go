package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"verkstad/internal/models"
)

type MemoryListingCache struct {
	listings sync.Map
	ttl      time.Duration
}

type listingEntry struct {
	listing   []models.RankedOffer
	expiresAt time.Time
}

func NewMemoryListingCache(ttl time.Duration) *MemoryListingCache {
	return &MemoryListingCache{
		ttl: ttl,
	}
}

func memoryKey(requestID, viewKey string) string {
	return requestID + "|" + viewKey
}

func (r *MemoryListingCache) GetListing(ctx context.Context, requestID, viewKey string) ([]models.RankedOffer, error) {
	val, ok := r.listings.Load(memoryKey(requestID, viewKey))
	if !ok {
		return nil, nil
	}
	entry := val.(*listingEntry)
	if time.Now().After(entry.expiresAt) {
		r.listings.Delete(memoryKey(requestID, viewKey))
		return nil, nil
	}
	return entry.listing, nil
}

func (r *MemoryListingCache) SetListing(ctx context.Context, requestID, viewKey string, listing []models.RankedOffer) error {
	r.listings.Store(memoryKey(requestID, viewKey), &listingEntry{
		listing:   listing,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemoryListingCache) InvalidateListing(ctx context.Context, requestID string) error {
	prefix := requestID + "|"
	r.listings.Range(func(key, _ interface{}) bool {
		if strings.HasPrefix(key.(string), prefix) {
			r.listings.Delete(key)
		}
		return true
	})
	return nil
}
