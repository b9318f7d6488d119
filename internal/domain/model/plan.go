package model

import (
	"time"

	"hotspot-pix-portal/internal/domain"
)

// AccessPlan represents a purchasable hotspot access window with a fixed
// duration and price in centavos (BRL minor units, integer to avoid float errors).
type AccessPlan struct {
	ID              string
	Label           string
	DurationMinutes int
	PriceCents      int64
	CreatedAt       time.Time
}

func (p *AccessPlan) IsZero() bool { return p == nil || p.ID == "" }

// NewAccessPlan validates and constructs a plan.
func NewAccessPlan(id, label string, durationMinutes int, priceCents int64) (*AccessPlan, error) {
	if id == "" || label == "" || durationMinutes <= 0 || priceCents <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &AccessPlan{
		ID:              id,
		Label:           label,
		DurationMinutes: durationMinutes,
		PriceCents:      priceCents,
		CreatedAt:       time.Now(),
	}, nil
}
