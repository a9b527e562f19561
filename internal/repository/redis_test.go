package repository

import (
	"context"
	"testing"
	"time"

	"verkstad/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testListing(offerID string, price string) []models.RankedOffer {
	return []models.RankedOffer{
		{
			Offer: models.Offer{
				ID:         offerID,
				RequestID:  "req-1",
				WorkshopID: "ws-1",
				Price:      decimal.RequireFromString(price),
				Status:     models.OfferStatusSent,
			},
			Workshop:   models.Workshop{ID: "ws-1", CompanyName: "Bil & Motor"},
			DistanceKm: 2.4,
		},
	}
}

func TestRedisListingCache(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	cache := NewRedisListingCache(client, time.Minute)
	ctx := context.Background()

	t.Run("SetAndGetListing", func(t *testing.T) {
		listing := testListing("offer-1", "8500")

		err := cache.SetListing(ctx, "req-1", "price|", listing)
		require.NoError(t, err)

		got, err := cache.GetListing(ctx, "req-1", "price|")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "offer-1", got[0].ID)
		assert.True(t, got[0].Price.Equal(decimal.RequireFromString("8500")))
		assert.Equal(t, "Bil & Motor", got[0].Workshop.CompanyName)
	})

	t.Run("GetMissReturnsNil", func(t *testing.T) {
		got, err := cache.GetListing(ctx, "req-unknown", "price|")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("InvalidateDropsAllViews", func(t *testing.T) {
		require.NoError(t, cache.SetListing(ctx, "req-2", "price|", testListing("offer-2", "9000")))
		require.NoError(t, cache.SetListing(ctx, "req-2", "rating|", testListing("offer-2", "9000")))

		err := cache.InvalidateListing(ctx, "req-2")
		require.NoError(t, err)

		got, err := cache.GetListing(ctx, "req-2", "price|")
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = cache.GetListing(ctx, "req-2", "rating|")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("InvalidateDoesNotTouchOtherRequests", func(t *testing.T) {
		require.NoError(t, cache.SetListing(ctx, "req-3", "price|", testListing("offer-3", "7000")))
		require.NoError(t, cache.SetListing(ctx, "req-4", "price|", testListing("offer-4", "7100")))

		require.NoError(t, cache.InvalidateListing(ctx, "req-3"))

		got, err := cache.GetListing(ctx, "req-4", "price|")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "offer-4", got[0].ID)
	})

	t.Run("TTLExpiry", func(t *testing.T) {
		require.NoError(t, cache.SetListing(ctx, "req-5", "price|", testListing("offer-5", "6000")))

		s.FastForward(time.Minute + time.Second)

		got, err := cache.GetListing(ctx, "req-5", "price|")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("NilClient", func(t *testing.T) {
		cache := NewRedisListingCache(nil, time.Minute)
		_, err := cache.GetListing(ctx, "req-1", "price|")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is nil")
	})

	t.Run("Ping", func(t *testing.T) {
		err := Ping(ctx, client)
		assert.NoError(t, err)
	})

	t.Run("Close", func(t *testing.T) {
		err := Close(client)
		assert.NoError(t, err)
	})
}
