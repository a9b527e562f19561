package models

import "time"

// Request is a customer's repair job open for bidding. ExpiresAt is set once
// at creation (created_at + bidding window) and never changes afterwards.
type Request struct {
	ID          string     `json:"id"`
	CustomerID  string     `json:"customer_id"`
	VehicleID   string     `json:"vehicle_id"`
	ReportID    string     `json:"report_id"`
	Description string     `json:"description"`
	Location    Coordinate `json:"location"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	PostalCode  string     `json:"postal_code"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
}

// AvailableRequest is a workshop-centric view of an open request: the request
// itself, the distance to the workshop and the workshop's own prior offer (if
// any) so the caller can tell "not yet bid" from "already bid".
type AvailableRequest struct {
	Request
	DistanceKm float64 `json:"distance"`
	OwnOffer   *Offer  `json:"own_offer,omitempty"`
}
