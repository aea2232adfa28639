package models

import (
	"time"

	"github.com/uptrace/bun"
)

// DefaultTagColor is used when a tag is created without an explicit color.
const DefaultTagColor = "#3B82F6"

type Tag struct {
	bun.BaseModel `bun:"table:tags,alias:t"`

	ID          string    `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `bun:",nullzero" json:"name"`
	Description *string   `json:"description,omitempty"`
	Color       string    `bun:",nullzero" json:"color"`
	Icon        *string   `json:"icon,omitempty"`
	IsActive    bool      `json:"is_active"`

	// UsageCount is a denormalized count of live associations. It's written
	// only by the usage-count reconciler and may briefly lag the association
	// table under write contention.
	UsageCount int `json:"usage_count"`
}
