package bidding

import "errors"

// Business-rule rejections. All are detected synchronously at the boundary
// operation and returned to the caller without retry; none leaves a partial
// state change behind.
var (
	ErrRequestNotFound  = errors.New("request not found")
	ErrOfferNotFound    = errors.New("offer not found")
	ErrWorkshopNotFound = errors.New("workshop not found")

	// ErrRequestNotAcceptingOffers: offer creation outside the bidding
	// window, or on a request that already left IN_BIDDING.
	ErrRequestNotAcceptingOffers = errors.New("request is not accepting offers")

	// ErrDuplicateOffer: the workshop already has a SENT or ACCEPTED offer
	// on this request.
	ErrDuplicateOffer = errors.New("workshop already has an active offer on this request")

	// ErrInvalidOfferParameters: rejected before any persistence attempt.
	ErrInvalidOfferParameters = errors.New("invalid offer parameters")

	// ErrStaleTransition: accept attempted on an offer no longer SENT, a
	// request no longer eligible, or an illegal status edge.
	ErrStaleTransition = errors.New("stale transition")
)
