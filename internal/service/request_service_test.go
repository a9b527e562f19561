package service

import (
	"context"
	"testing"
	"time"

	"verkstad/internal/bidding"
	"verkstad/internal/events"
	"verkstad/internal/matching"
	"verkstad/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateRequest(t *testing.T) {
	ctx := context.Background()
	matcher := matching.NewMatcher(models.DefaultRadiusKm)

	t.Run("OpensBiddingWindow", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewRequestService(repo, matcher, nil, 48, &testLogger)

		repo.On("CreateRequest", ctx, mock.Anything).Return(nil).Once()

		req := &models.Request{
			CustomerID:  "cust-1",
			Description: "timing belt replacement",
			Location:    models.Coordinate{Latitude: 59.3293, Longitude: 18.0686},
		}
		created, err := svc.CreateRequest(ctx, req)
		require.NoError(t, err)

		assert.NotEmpty(t, created.ID)
		assert.Equal(t, models.RequestStatusInBidding, created.Status)
		assert.WithinDuration(t, created.CreatedAt.Add(48*time.Hour), created.ExpiresAt, time.Second)
		repo.AssertExpectations(t)
	})

	t.Run("RejectsInvalidLocation", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewRequestService(repo, matcher, nil, 48, &testLogger)

		req := &models.Request{
			CustomerID:  "cust-1",
			Description: "oil change",
			Location:    models.Coordinate{Latitude: 123.0, Longitude: 18.0},
		}
		_, err := svc.CreateRequest(ctx, req)
		assert.ErrorIs(t, err, bidding.ErrInvalidOfferParameters)
		repo.AssertNotCalled(t, "CreateRequest", mock.Anything, mock.Anything)
	})

	t.Run("RejectsMissingFields", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewRequestService(repo, matcher, nil, 48, &testLogger)

		req := &models.Request{
			Location: models.Coordinate{Latitude: 59.3, Longitude: 18.0},
		}
		_, err := svc.CreateRequest(ctx, req)
		assert.ErrorIs(t, err, bidding.ErrInvalidOfferParameters)
	})

	t.Run("NotifiesWorkshopsInRadius", func(t *testing.T) {
		repo := new(mockRepo)
		bus := new(mockPublisher)
		svc := NewRequestService(repo, matcher, bus, 48, &testLogger)

		workshops := []models.Workshop{
			{ID: "ws-near", Location: models.Coordinate{Latitude: 59.3346, Longitude: 18.0632}, IsVerified: true, IsActive: true},
			{ID: "ws-far", Location: models.Coordinate{Latitude: 57.7089, Longitude: 11.9746}, IsVerified: true, IsActive: true},
		}
		repo.On("CreateRequest", ctx, mock.Anything).Return(nil).Once()
		repo.On("GetEligibleWorkshops", ctx).Return(workshops, nil).Once()

		var published events.RequestEventPayload
		bus.On("PublishJSON", events.EventRequestCreated, mock.Anything).
			Run(func(args mock.Arguments) {
				published = args.Get(1).(events.RequestEventPayload)
			}).Return(nil).Once()

		req := &models.Request{
			CustomerID:  "cust-1",
			Description: "wheel alignment",
			Location:    models.Coordinate{Latitude: 59.3293, Longitude: 18.0686},
		}
		created, err := svc.CreateRequest(ctx, req)
		require.NoError(t, err)

		assert.Equal(t, created.ID, published.RequestID)
		assert.Equal(t, []string{"ws-near"}, published.WorkshopIDs)
		bus.AssertExpectations(t)
	})

	t.Run("ZeroWindowFallsBackToDefault", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewRequestService(repo, matcher, nil, 0, &testLogger)

		repo.On("CreateRequest", ctx, mock.Anything).Return(nil).Once()

		req := &models.Request{
			CustomerID:  "cust-1",
			Description: "clutch",
			Location:    models.Coordinate{Latitude: 59.3, Longitude: 18.0},
		}
		created, err := svc.CreateRequest(ctx, req)
		require.NoError(t, err)
		assert.WithinDuration(t, created.CreatedAt.Add(models.DefaultBiddingWindowHours*time.Hour), created.ExpiresAt, time.Second)
	})
}

func TestGetAvailableRequests(t *testing.T) {
	ctx := context.Background()
	matcher := matching.NewMatcher(models.DefaultRadiusKm)

	workshop := &models.Workshop{
		ID:         "ws-1",
		Location:   models.Coordinate{Latitude: 59.3293, Longitude: 18.0686},
		IsVerified: true,
		IsActive:   true,
	}

	near := *stockholmRequest("req-near")
	near.Location = models.Coordinate{Latitude: 59.3346, Longitude: 18.0632}
	far := *stockholmRequest("req-far")
	far.Location = models.Coordinate{Latitude: 57.7089, Longitude: 11.9746} // Gothenburg

	t.Run("FiltersByRadiusAndMarksOwnOffer", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewRequestService(repo, matcher, nil, 48, &testLogger)

		ownOffer := sentOffer("offer-own", "req-near", "ws-1", "8000")
		repo.On("GetWorkshop", ctx, "ws-1").Return(workshop, nil).Once()
		repo.On("GetOpenRequests", ctx, mock.Anything).Return([]models.Request{near, far}, nil).Once()
		repo.On("GetWorkshopOffersForRequests", ctx, "ws-1", []string{"req-near"}).
			Return(map[string]models.Offer{"req-near": ownOffer}, nil).Once()

		available, err := svc.GetAvailableRequests(ctx, "ws-1", nil, 0)
		require.NoError(t, err)
		require.Len(t, available, 1)
		assert.Equal(t, "req-near", available[0].ID)
		require.NotNil(t, available[0].OwnOffer)
		assert.Equal(t, "offer-own", available[0].OwnOffer.ID)
		repo.AssertExpectations(t)
	})

	t.Run("OriginOverridesStoredLocation", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewRequestService(repo, matcher, nil, 48, &testLogger)

		// Workshop is in Stockholm but reports a position in Gothenburg.
		origin := models.Coordinate{Latitude: 57.7089, Longitude: 11.9746}
		repo.On("GetWorkshop", ctx, "ws-1").Return(workshop, nil).Once()
		repo.On("GetOpenRequests", ctx, mock.Anything).Return([]models.Request{near, far}, nil).Once()
		repo.On("GetWorkshopOffersForRequests", ctx, "ws-1", []string{"req-far"}).
			Return(map[string]models.Offer{}, nil).Once()

		available, err := svc.GetAvailableRequests(ctx, "ws-1", &origin, 0)
		require.NoError(t, err)
		require.Len(t, available, 1)
		assert.Equal(t, "req-far", available[0].ID)
		assert.Nil(t, available[0].OwnOffer)
	})

	t.Run("InvalidOrigin", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewRequestService(repo, matcher, nil, 48, &testLogger)

		origin := models.Coordinate{Latitude: 0, Longitude: 200}
		repo.On("GetWorkshop", ctx, "ws-1").Return(workshop, nil).Once()

		_, err := svc.GetAvailableRequests(ctx, "ws-1", &origin, 0)
		assert.ErrorIs(t, err, bidding.ErrInvalidOfferParameters)
	})

	t.Run("UnknownWorkshop", func(t *testing.T) {
		repo := new(mockRepo)
		svc := NewRequestService(repo, matcher, nil, 48, &testLogger)

		repo.On("GetWorkshop", ctx, "ghost").Return(nil, bidding.ErrWorkshopNotFound).Once()

		_, err := svc.GetAvailableRequests(ctx, "ghost", nil, 0)
		assert.ErrorIs(t, err, bidding.ErrWorkshopNotFound)
	})
}

func TestCancelRequest(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepo)
	svc := NewRequestService(repo, matching.NewMatcher(models.DefaultRadiusKm), nil, 48, &testLogger)

	repo.On("UpdateRequestStatus", ctx, "req-1", models.RequestStatusCancelled).Return(nil).Once()

	err := svc.CancelRequest(ctx, "req-1")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
