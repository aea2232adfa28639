package entitytags

type SetEntityTagsPayload struct {
	// An empty list is valid: it clears every association the entity has.
	TagIDs []string `json:"tag_ids" validate:"omitempty,max=100,dive,min=1"`
}

type AddEntityTagsPayload struct {
	TagIDs []string `json:"tag_ids" validate:"required,min=1,max=100,dive,min=1"`
}

type RemoveEntityTagsPayload struct {
	TagIDs []string `json:"tag_ids" validate:"required,min=1,max=100,dive,min=1"`
}
