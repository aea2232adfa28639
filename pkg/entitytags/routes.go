package entitytags

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers entity tag routes on a pre-configured
// group. The reconciler is shared with the rest of the app so all usage-count
// deltas funnel through one queue.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, reconciler *Reconciler) {
	h := &handler{
		service:    NewService(db),
		reconciler: reconciler,
	}

	g.GET("/:type/:id/tags", h.list)
	g.PUT("/:type/:id/tags", h.replace)
	g.POST("/:type/:id/tags", h.add)
	g.DELETE("/:type/:id/tags", h.remove)
}
