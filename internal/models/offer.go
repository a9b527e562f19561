package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Offer is one workshop's priced bid on one request. A workshop may hold at
// most one SENT or ACCEPTED offer per request. Offers are never deleted;
// declined and expired ones stay for audit.
type Offer struct {
	ID                       string          `json:"id"`
	RequestID                string          `json:"request_id"`
	WorkshopID               string          `json:"workshop_id"`
	Price                    decimal.Decimal `json:"price"`
	EstimatedDurationMinutes int             `json:"estimated_duration_minutes"`
	Warranty                 string          `json:"warranty,omitempty"`
	Note                     string          `json:"note,omitempty"`
	AvailableDates           []time.Time     `json:"available_dates"`
	Status                   string          `json:"status"`
	CreatedAt                time.Time       `json:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at"`
}

// IsActive reports whether the offer still counts against the
// one-offer-per-workshop invariant.
func (o *Offer) IsActive() bool {
	return o.Status == OfferStatusSent || o.Status == OfferStatusAccepted
}

// RankedOffer is the unit of output from the offer ranking: an offer joined
// with its workshop snapshot and the distance from the request location.
// Derived at read time, never persisted.
type RankedOffer struct {
	Offer
	Workshop   Workshop `json:"workshop"`
	DistanceKm float64  `json:"distance"`
}
