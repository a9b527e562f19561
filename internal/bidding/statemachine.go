package bidding

import (
	"fmt"
	"time"

	"verkstad/internal/matching"
	"verkstad/internal/models"

	"github.com/shopspring/decimal"
)

// requestTransitions lists the legal request status edges:
// NEW → IN_BIDDING → {BIDDING_CLOSED | BOOKED} → {COMPLETED | CANCELLED}.
// COMPLETED and CANCELLED are terminal.
var requestTransitions = map[string][]string{
	models.RequestStatusNew:           {models.RequestStatusInBidding, models.RequestStatusCancelled},
	models.RequestStatusInBidding:     {models.RequestStatusBiddingClosed, models.RequestStatusBooked, models.RequestStatusCancelled},
	models.RequestStatusBiddingClosed: {models.RequestStatusBooked, models.RequestStatusCancelled},
	models.RequestStatusBooked:        {models.RequestStatusCompleted, models.RequestStatusCancelled},
}

var bookingTransitions = map[string][]string{
	models.BookingStatusConfirmed:   {models.BookingStatusRescheduled, models.BookingStatusDone, models.BookingStatusCancelled, models.BookingStatusNoShow},
	models.BookingStatusRescheduled: {models.BookingStatusRescheduled, models.BookingStatusDone, models.BookingStatusCancelled, models.BookingStatusNoShow},
}

// CanTransitionRequest validates a request status edge.
func CanTransitionRequest(from, to string) error {
	for _, allowed := range requestTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: request %s -> %s", ErrStaleTransition, from, to)
}

// CanTransitionBooking validates a booking status edge.
func CanTransitionBooking(from, to string) error {
	for _, allowed := range bookingTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: booking %s -> %s", ErrStaleTransition, from, to)
}

// ValidateOfferParameters rejects malformed offer submissions before any
// persistence attempt: price and duration must be positive, at least one
// available date is required.
func ValidateOfferParameters(price decimal.Decimal, durationMinutes int, availableDates []time.Time) error {
	if price.Cmp(decimal.Zero) <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrInvalidOfferParameters)
	}
	if durationMinutes <= 0 {
		return fmt.Errorf("%w: estimated duration must be positive", ErrInvalidOfferParameters)
	}
	if len(availableDates) == 0 {
		return fmt.Errorf("%w: at least one available date is required", ErrInvalidOfferParameters)
	}
	return nil
}

// CanCreateOffer checks the bidding-window rules for a new offer: the parent
// request must be effectively open at the given instant, and the workshop may
// not already hold an active offer on it. existing is the set of offers
// currently on the request.
func CanCreateOffer(req *models.Request, existing []models.Offer, workshopID string, now time.Time) error {
	if !matching.IsEffectivelyOpen(req, now) {
		return ErrRequestNotAcceptingOffers
	}
	for i := range existing {
		if existing[i].WorkshopID == workshopID && existing[i].IsActive() {
			return ErrDuplicateOffer
		}
	}
	return nil
}

// CanAcceptOffer checks whether accepting the offer (creating a booking) is
// legal: the offer must still be SENT and its parent request IN_BIDDING or
// BIDDING_CLOSED. A request may be chosen after bidding closed but before
// expiry logic finalizes it. Competing SENT offers are left untouched.
func CanAcceptOffer(offer *models.Offer, req *models.Request) error {
	if offer.Status != models.OfferStatusSent {
		return fmt.Errorf("%w: offer is %s", ErrStaleTransition, offer.Status)
	}
	if req.Status != models.RequestStatusInBidding && req.Status != models.RequestStatusBiddingClosed {
		return fmt.Errorf("%w: request is %s", ErrStaleTransition, req.Status)
	}
	return nil
}
