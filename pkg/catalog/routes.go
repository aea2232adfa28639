package catalog

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"

	"github.com/bokahq/boka/pkg/entitytags"
)

// RegisterRoutesWithGroup registers catalog routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, reconciler *entitytags.Reconciler) {
	h := &handler{
		catalogService: NewService(db),
		reconciler:     reconciler,
	}

	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.retrieve)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.deleteService)
}
