package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"

	"github.com/bokahq/boka/pkg/binder"
	"github.com/bokahq/boka/pkg/catalog"
	"github.com/bokahq/boka/pkg/config"
	"github.com/bokahq/boka/pkg/entitytags"
	"github.com/bokahq/boka/pkg/errcodes"
	"github.com/bokahq/boka/pkg/tags"
)

// New wires the HTTP surface. Authentication happens upstream of this
// service, so routes are registered without an auth middleware.
func New(cfg *config.Config, db *bun.DB, reconciler *entitytags.Reconciler) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	tagsGroup := e.Group("/tags")
	tags.RegisterRoutesWithGroup(tagsGroup, db)

	entitiesGroup := e.Group("/entities")
	entitytags.RegisterRoutesWithGroup(entitiesGroup, db, reconciler)

	servicesGroup := e.Group("/services")
	catalog.RegisterRoutesWithGroup(servicesGroup, db, reconciler)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
