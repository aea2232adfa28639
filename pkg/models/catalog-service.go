package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CatalogService is a bookable offering (a haircut, a massage, a consult).
// It's the representative tag-bearing entity in this repo; the other entity
// kinds live in their own services and reach the tagging engine the same way.
type CatalogService struct {
	bun.BaseModel `bun:"table:catalog_services,alias:cs"`

	ID              string    `bun:",pk,nullzero" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Name            string    `bun:",nullzero" json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceCents      int       `json:"price_cents"`
	IsActive        bool      `json:"is_active"`

	Tags []*Tag `bun:"-" json:"tags,omitempty"`
}
