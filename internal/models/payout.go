package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayoutReport is the monthly settlement statement for one workshop: DONE
// bookings created within the calendar month, net of platform commission.
// Unique per (workshop, month, year); regeneration overwrites the totals.
type PayoutReport struct {
	ID             string          `json:"id"`
	WorkshopID     string          `json:"workshop_id"`
	Month          int             `json:"month"`
	Year           int             `json:"year"`
	TotalJobs      int             `json:"total_jobs"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Commission     decimal.Decimal `json:"commission"`
	WorkshopAmount decimal.Decimal `json:"workshop_amount"`
	IsPaid         bool            `json:"is_paid"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
