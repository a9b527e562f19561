package domain

import (
	"context"
	"time"

	"verkstad/internal/database"
	"verkstad/internal/models"
)

// Repository is the persistence boundary consumed by the service layer.
// *database.DB satisfies it; tests may substitute their own.
type Repository interface {
	CreateWorkshop(ctx context.Context, w *models.Workshop) error
	GetWorkshop(ctx context.Context, id string) (*models.Workshop, error)
	GetWorkshopByOwner(ctx context.Context, userID string) (*models.Workshop, error)
	GetEligibleWorkshops(ctx context.Context) ([]models.Workshop, error)
	GetWorkshopsByIDs(ctx context.Context, ids []string) (map[string]models.Workshop, error)
	SetWorkshopFlags(ctx context.Context, id string, isVerified, isActive bool) error

	CreateRequest(ctx context.Context, req *models.Request) error
	GetRequest(ctx context.Context, id string) (*models.Request, error)
	GetOpenRequests(ctx context.Context, now time.Time) ([]models.Request, error)
	GetCustomerRequests(ctx context.Context, customerID string) ([]models.Request, error)
	UpdateRequestStatus(ctx context.Context, id string, status string) error
	CloseExpiredRequests(ctx context.Context, now time.Time) ([]string, error)

	CreateOfferWithLock(ctx context.Context, offer *models.Offer, now time.Time) error
	GetOffer(ctx context.Context, id string) (*models.Offer, error)
	GetOffersForRequest(ctx context.Context, requestID string) ([]models.Offer, error)
	GetWorkshopOffersForRequests(ctx context.Context, workshopID string, requestIDs []string) (map[string]models.Offer, error)
	UpdateOfferStatus(ctx context.Context, id string, status string) error

	AcceptOfferWithLock(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	UpdateBooking(ctx context.Context, id string, status string, scheduledAt *time.Time, notes *string) error
	GetCustomerBookings(ctx context.Context, customerID string) ([]models.Booking, error)
	GetDoneBookingsForMonth(ctx context.Context, workshopID string, month, year int) ([]models.Booking, error)

	UpsertPayoutReport(ctx context.Context, report *models.PayoutReport) error
	GetPayoutReports(ctx context.Context, f database.PayoutFilter) ([]models.PayoutReport, error)
	MarkPayoutPaid(ctx context.Context, id string) error
}

// ListingCache stores ranked-offer listings keyed per request and view
// parameters. GetListing returns (nil, nil) on a miss.
type ListingCache interface {
	GetListing(ctx context.Context, requestID, viewKey string) ([]models.RankedOffer, error)
	SetListing(ctx context.Context, requestID, viewKey string, listing []models.RankedOffer) error
	InvalidateListing(ctx context.Context, requestID string) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
