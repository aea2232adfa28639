package models

import (
	"time"

	"github.com/uptrace/bun"
)

// EntityType is the closed set of object kinds that can carry tags. EntityID
// columns are opaque strings scoped by this type; there is no foreign key to
// the entity tables themselves.
type EntityType string

const (
	EntityTypeAppointment    EntityType = "appointment"
	EntityTypeStaff          EntityType = "staff"
	EntityTypeSpace          EntityType = "space"
	EntityTypeService        EntityType = "service"
	EntityTypeProduct        EntityType = "product"
	EntityTypeUser           EntityType = "user"
	EntityTypeCompany        EntityType = "company"
	EntityTypeCompanyProduct EntityType = "company_product"
)

// EntityTypes lists every valid entity type, in the order they're documented.
var EntityTypes = []EntityType{
	EntityTypeAppointment,
	EntityTypeStaff,
	EntityTypeSpace,
	EntityTypeService,
	EntityTypeProduct,
	EntityTypeUser,
	EntityTypeCompany,
	EntityTypeCompanyProduct,
}

func (et EntityType) Valid() bool {
	for _, known := range EntityTypes {
		if et == known {
			return true
		}
	}
	return false
}

func (et EntityType) String() string {
	return string(et)
}

type EntityTag struct {
	bun.BaseModel `bun:"table:entity_tags,alias:et"`

	ID         string     `bun:",pk,nullzero" json:"id"`
	EntityType EntityType `bun:",nullzero" json:"entity_type"`
	EntityID   string     `bun:",nullzero" json:"entity_id"`
	TagID      string     `bun:",nullzero" json:"tag_id"`
	CreatedAt  time.Time  `json:"created_at"`
	Tag        *Tag       `bun:"rel:belongs-to,join:tag_id=id" json:"tag,omitempty"`
}
