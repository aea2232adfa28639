package catalog

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/bokahq/boka/pkg/entitytags"
	"github.com/bokahq/boka/pkg/errcodes"
	"github.com/bokahq/boka/pkg/models"
)

type handler struct {
	catalogService *Service
	reconciler     *entitytags.Reconciler
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateServicePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	cs := &models.CatalogService{
		Name:            params.Name,
		DurationMinutes: params.DurationMinutes,
		PriceCents:      params.PriceCents,
	}

	delta, err := h.catalogService.CreateService(ctx, cs, params.TagIDs)
	if err != nil {
		return errors.WithStack(err)
	}

	// Usage counts update after commit, off the response path.
	if delta != nil {
		h.reconciler.Enqueue(delta.Old, delta.New)
	}

	cs, err = h.catalogService.RetrieveService(ctx, RetrieveServiceOptions{ID: &cs.ID})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, cs))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if id == "" {
		return errcodes.NotFound("Service")
	}

	cs, err := h.catalogService.RetrieveService(ctx, RetrieveServiceOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, cs))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListServicesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListServicesOptions{
		Limit:    &params.Limit,
		Offset:   &params.Offset,
		IsActive: params.IsActive,
	}

	services, total, err := h.catalogService.ListServicesWithTotal(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	response := map[string]any{
		"services": services,
		"total":    total,
	}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if id == "" {
		return errcodes.NotFound("Service")
	}

	params := UpdateServicePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	cs, err := h.catalogService.RetrieveService(ctx, RetrieveServiceOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	columns := []string{}
	if params.Name != nil {
		cs.Name = *params.Name
		columns = append(columns, "name")
	}
	if params.DurationMinutes != nil {
		cs.DurationMinutes = *params.DurationMinutes
		columns = append(columns, "duration_minutes")
	}
	if params.PriceCents != nil {
		cs.PriceCents = *params.PriceCents
		columns = append(columns, "price_cents")
	}
	if params.IsActive != nil {
		cs.IsActive = *params.IsActive
		columns = append(columns, "is_active")
	}

	delta, err := h.catalogService.UpdateService(ctx, cs, UpdateServiceOptions{Columns: columns}, params.TagIDs)
	if err != nil {
		return errors.WithStack(err)
	}

	if delta != nil {
		h.reconciler.Enqueue(delta.Old, delta.New)
	}

	cs, err = h.catalogService.RetrieveService(ctx, RetrieveServiceOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, cs))
}

func (h *handler) deleteService(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if id == "" {
		return errcodes.NotFound("Service")
	}

	delta, err := h.catalogService.DeleteService(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	if delta != nil {
		h.reconciler.Enqueue(delta.Old, delta.New)
	}

	return c.NoContent(http.StatusNoContent)
}
