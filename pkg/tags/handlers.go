package tags

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bokahq/boka/pkg/errcodes"
	"github.com/bokahq/boka/pkg/models"
)

type handler struct {
	tagService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateTagPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	tag := &models.Tag{
		Name:        params.Name,
		Description: params.Description,
		Icon:        params.Icon,
	}
	if params.Color != nil {
		tag.Color = *params.Color
	}

	if err := h.tagService.CreateTag(ctx, tag); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, tag))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if id == "" {
		return errcodes.NotFound("Tag")
	}

	tag, err := h.tagService.RetrieveTag(ctx, RetrieveTagOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, tag))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListTagsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListTagsOptions{
		Limit:    &params.Limit,
		Offset:   &params.Offset,
		IsActive: params.IsActive,
		Search:   params.Search,
	}

	tags, total, err := h.tagService.ListTagsWithTotal(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]any{
		"tags":  tags,
		"total": total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if id == "" {
		return errcodes.NotFound("Tag")
	}

	params := UpdateTagPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	tag, err := h.tagService.RetrieveTag(ctx, RetrieveTagOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	columns := []string{}
	if params.Name != nil {
		if *params.Name == "" {
			return errcodes.ValidationError("Tag name cannot be empty")
		}
		tag.Name = *params.Name
		columns = append(columns, "name")
	}
	if params.Description != nil {
		tag.Description = params.Description
		columns = append(columns, "description")
	}
	if params.Color != nil {
		tag.Color = *params.Color
		columns = append(columns, "color")
	}
	if params.Icon != nil {
		tag.Icon = params.Icon
		columns = append(columns, "icon")
	}
	if params.IsActive != nil {
		// Deactivation is the supported way to retire an in-use tag;
		// associations stay in place.
		tag.IsActive = *params.IsActive
		columns = append(columns, "is_active")
	}

	err = h.tagService.UpdateTag(ctx, tag, UpdateTagOptions{Columns: columns})
	if err != nil {
		return errors.WithStack(err)
	}

	tag, err = h.tagService.RetrieveTag(ctx, RetrieveTagOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, tag))
}

func (h *handler) deleteTag(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if id == "" {
		return errcodes.NotFound("Tag")
	}

	err := h.tagService.DeleteTag(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}
