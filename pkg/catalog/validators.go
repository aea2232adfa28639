package catalog

type ListServicesQuery struct {
	Limit    int   `query:"limit" json:"limit,omitempty" default:"24" validate:"min=1,max=100"`
	Offset   int   `query:"offset" json:"offset,omitempty" validate:"min=0"`
	IsActive *bool `query:"is_active" json:"is_active,omitempty"`
}

type CreateServicePayload struct {
	Name            string   `json:"name" mod:"trim" validate:"required,min=1,max=300"`
	DurationMinutes int      `json:"duration_minutes" validate:"min=0,max=1440"`
	PriceCents      int      `json:"price_cents" validate:"min=0"`
	TagIDs          []string `json:"tag_ids,omitempty" validate:"omitempty,max=100,dive,min=1"`
}

type UpdateServicePayload struct {
	Name            *string   `json:"name,omitempty" mod:"trim" validate:"omitempty,min=1,max=300"`
	DurationMinutes *int      `json:"duration_minutes,omitempty" validate:"omitempty,min=0,max=1440"`
	PriceCents      *int      `json:"price_cents,omitempty" validate:"omitempty,min=0"`
	IsActive        *bool     `json:"is_active,omitempty"`
	TagIDs          []string  `json:"tag_ids,omitempty" validate:"omitempty,max=100,dive,min=1"`
}
