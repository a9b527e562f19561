package service

import (
	"context"
	"time"

	"verkstad/internal/database"
	"verkstad/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CreateWorkshop(ctx context.Context, w *models.Workshop) error {
	return m.Called(ctx, w).Error(0)
}
func (m *mockRepo) GetWorkshop(ctx context.Context, id string) (*models.Workshop, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workshop), args.Error(1)
}
func (m *mockRepo) GetWorkshopByOwner(ctx context.Context, userID string) (*models.Workshop, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workshop), args.Error(1)
}
func (m *mockRepo) GetEligibleWorkshops(ctx context.Context) ([]models.Workshop, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Workshop), args.Error(1)
}
func (m *mockRepo) GetWorkshopsByIDs(ctx context.Context, ids []string) (map[string]models.Workshop, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]models.Workshop), args.Error(1)
}
func (m *mockRepo) SetWorkshopFlags(ctx context.Context, id string, isVerified, isActive bool) error {
	return m.Called(ctx, id, isVerified, isActive).Error(0)
}

func (m *mockRepo) CreateRequest(ctx context.Context, req *models.Request) error {
	return m.Called(ctx, req).Error(0)
}
func (m *mockRepo) GetRequest(ctx context.Context, id string) (*models.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}
func (m *mockRepo) GetOpenRequests(ctx context.Context, now time.Time) ([]models.Request, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Request), args.Error(1)
}
func (m *mockRepo) GetCustomerRequests(ctx context.Context, customerID string) ([]models.Request, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Request), args.Error(1)
}
func (m *mockRepo) UpdateRequestStatus(ctx context.Context, id string, status string) error {
	return m.Called(ctx, id, status).Error(0)
}
func (m *mockRepo) CloseExpiredRequests(ctx context.Context, now time.Time) ([]string, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockRepo) CreateOfferWithLock(ctx context.Context, offer *models.Offer, now time.Time) error {
	return m.Called(ctx, offer, now).Error(0)
}
func (m *mockRepo) GetOffer(ctx context.Context, id string) (*models.Offer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Offer), args.Error(1)
}
func (m *mockRepo) GetOffersForRequest(ctx context.Context, requestID string) ([]models.Offer, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Offer), args.Error(1)
}
func (m *mockRepo) GetWorkshopOffersForRequests(ctx context.Context, workshopID string, requestIDs []string) (map[string]models.Offer, error) {
	args := m.Called(ctx, workshopID, requestIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]models.Offer), args.Error(1)
}
func (m *mockRepo) UpdateOfferStatus(ctx context.Context, id string, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockRepo) AcceptOfferWithLock(ctx context.Context, booking *models.Booking) error {
	return m.Called(ctx, booking).Error(0)
}
func (m *mockRepo) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}
func (m *mockRepo) UpdateBooking(ctx context.Context, id string, status string, scheduledAt *time.Time, notes *string) error {
	return m.Called(ctx, id, status, scheduledAt, notes).Error(0)
}
func (m *mockRepo) GetCustomerBookings(ctx context.Context, customerID string) ([]models.Booking, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}
func (m *mockRepo) GetDoneBookingsForMonth(ctx context.Context, workshopID string, month, year int) ([]models.Booking, error) {
	args := m.Called(ctx, workshopID, month, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockRepo) UpsertPayoutReport(ctx context.Context, report *models.PayoutReport) error {
	return m.Called(ctx, report).Error(0)
}
func (m *mockRepo) GetPayoutReports(ctx context.Context, f database.PayoutFilter) ([]models.PayoutReport, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PayoutReport), args.Error(1)
}
func (m *mockRepo) MarkPayoutPaid(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

type mockListingCache struct {
	mock.Mock
}

func (m *mockListingCache) GetListing(ctx context.Context, requestID, viewKey string) ([]models.RankedOffer, error) {
	args := m.Called(ctx, requestID, viewKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RankedOffer), args.Error(1)
}
func (m *mockListingCache) SetListing(ctx context.Context, requestID, viewKey string, listing []models.RankedOffer) error {
	return m.Called(ctx, requestID, viewKey, listing).Error(0)
}
func (m *mockListingCache) InvalidateListing(ctx context.Context, requestID string) error {
	return m.Called(ctx, requestID).Error(0)
}
