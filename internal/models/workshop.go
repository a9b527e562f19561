package models

import "time"

type Workshop struct {
	ID          string     `json:"id"`
	OwnerUserID string     `json:"owner_user_id,omitempty"`
	CompanyName string     `json:"company_name"`
	Location    Coordinate `json:"location"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	Rating      float64    `json:"rating"`
	ReviewCount int        `json:"review_count"`
	IsVerified  bool       `json:"is_verified"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
