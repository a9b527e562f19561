package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Booking struct {
	ID             string          `json:"id"`
	RequestID      string          `json:"request_id"`
	OfferID        string          `json:"offer_id"`
	CustomerID     string          `json:"customer_id"`
	WorkshopID     string          `json:"workshop_id"`
	ScheduledAt    time.Time       `json:"scheduled_at"`
	Status         string          `json:"status"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Commission     decimal.Decimal `json:"commission"`
	WorkshopAmount decimal.Decimal `json:"workshop_amount"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
