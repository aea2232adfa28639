package entitytags

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bokahq/boka/pkg/models"
)

type handler struct {
	service    *Service
	reconciler *Reconciler
}

func (h *handler) entityParams(c echo.Context) (models.EntityType, string) {
	return models.EntityType(c.Param("type")), c.Param("id")
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()
	entityType, entityID := h.entityParams(c)

	tags, err := h.service.GetEntityTags(ctx, entityType, entityID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, tags))
}

// replace swaps the entity's whole tag set. The usage-count delta is enqueued
// only after the transaction has committed, and the response doesn't wait for
// it.
func (h *handler) replace(c echo.Context) error {
	ctx := c.Request().Context()
	entityType, entityID := h.entityParams(c)

	params := SetEntityTagsPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	delta, err := h.service.SetEntityTags(ctx, entityType, entityID, params.TagIDs, nil)
	if err != nil {
		return errors.WithStack(err)
	}

	h.reconciler.Enqueue(delta.Old, delta.New)

	return errors.WithStack(c.JSON(http.StatusOK, delta))
}

func (h *handler) add(c echo.Context) error {
	ctx := c.Request().Context()
	entityType, entityID := h.entityParams(c)

	params := AddEntityTagsPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	added, err := h.service.AddEntityTags(ctx, entityType, entityID, params.TagIDs, nil)
	if err != nil {
		return errors.WithStack(err)
	}

	h.reconciler.Enqueue(nil, added)

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
		"added_tag_ids": added,
	}))
}

func (h *handler) remove(c echo.Context) error {
	ctx := c.Request().Context()
	entityType, entityID := h.entityParams(c)

	params := RemoveEntityTagsPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	removed, err := h.service.RemoveEntityTags(ctx, entityType, entityID, params.TagIDs, nil)
	if err != nil {
		return errors.WithStack(err)
	}

	h.reconciler.Enqueue(removed, nil)

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
		"removed_tag_ids": removed,
	}))
}
