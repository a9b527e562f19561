package models

// Request lifecycle. Requests are created directly in IN_BIDDING;
// NEW is a legal start state kept for compatibility but unused in practice.
const (
	RequestStatusNew           = "NEW"
	RequestStatusInBidding     = "IN_BIDDING"
	RequestStatusBiddingClosed = "BIDDING_CLOSED"
	RequestStatusBooked        = "BOOKED"
	RequestStatusCompleted     = "COMPLETED"
	RequestStatusCancelled     = "CANCELLED"
)

// Offer lifecycle. Declined and expired offers are retained for audit.
const (
	OfferStatusSent     = "SENT"
	OfferStatusAccepted = "ACCEPTED"
	OfferStatusDeclined = "DECLINED"
	OfferStatusExpired  = "EXPIRED"
)

// Booking lifecycle, tracked independently of the request.
const (
	BookingStatusConfirmed   = "CONFIRMED"
	BookingStatusRescheduled = "RESCHEDULED"
	BookingStatusDone        = "DONE"
	BookingStatusCancelled   = "CANCELLED"
	BookingStatusNoShow      = "NO_SHOW"
)

const (
	// DefaultBiddingWindowHours время жизни заявки с момента создания
	DefaultBiddingWindowHours = 48

	// DefaultRadiusKm радиус поиска мастерских по умолчанию
	DefaultRadiusKm = 30.0

	// DefaultMaxRankedOffers максимальное количество предложений в выдаче
	DefaultMaxRankedOffers = 12

	// DefaultCommissionRate комиссия площадки с завершенной брони
	DefaultCommissionRate = 0.10

	// DefaultListingCacheTTL время жизни кэша выдачи предложений
	DefaultListingCacheTTL = 60 // секунды

	// DefaultSweepIntervalMinutes интервал фонового закрытия просроченных заявок
	DefaultSweepIntervalMinutes = 5
)
