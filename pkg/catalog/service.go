// Package catalog owns the bookable service catalog. It's the reference
// example of an entity caller composing its own writes with the tagging
// engine inside one transaction.
package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/bokahq/boka/pkg/entitytags"
	"github.com/bokahq/boka/pkg/errcodes"
	"github.com/bokahq/boka/pkg/ids"
	"github.com/bokahq/boka/pkg/models"
)

type RetrieveServiceOptions struct {
	ID *string
}

type ListServicesOptions struct {
	Limit    *int
	Offset   *int
	IsActive *bool

	includeTotal bool
}

type UpdateServiceOptions struct {
	Columns []string
}

type Service struct {
	db         *bun.DB
	entityTags *entitytags.Service
}

func NewService(db *bun.DB) *Service {
	return &Service{
		db:         db,
		entityTags: entitytags.NewService(db),
	}
}

// CreateService inserts the catalog row and, when tagIDs is non-nil, its tag
// associations within the same transaction. The returned delta is for the
// caller to hand to the reconciler after this method returns; doing it here
// would put counter updates inside an uncommitted transaction.
func (svc *Service) CreateService(ctx context.Context, cs *models.CatalogService, tagIDs []string) (*entitytags.TagDelta, error) {
	now := time.Now()
	if cs.CreatedAt.IsZero() {
		cs.CreatedAt = now
	}
	cs.UpdatedAt = cs.CreatedAt
	if cs.ID == "" {
		id, err := ids.New("svc")
		if err != nil {
			return nil, errors.WithStack(err)
		}
		cs.ID = id
	}
	cs.IsActive = true

	var delta *entitytags.TagDelta
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(cs).
			Returning("*").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		if tagIDs == nil {
			return nil
		}
		delta, err = svc.entityTags.SetEntityTags(ctx, models.EntityTypeService, cs.ID, tagIDs, tx)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "create catalog service")
	}

	return delta, nil
}

func (svc *Service) RetrieveService(ctx context.Context, opts RetrieveServiceOptions) (*models.CatalogService, error) {
	cs := &models.CatalogService{}

	q := svc.db.
		NewSelect().
		Model(cs)

	if opts.ID != nil {
		q = q.Where("cs.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Service")
		}
		return nil, errors.WithStack(err)
	}

	// Every fetch decorates the row with its tag metadata.
	cs.Tags, err = svc.entityTags.GetEntityTags(ctx, models.EntityTypeService, cs.ID)
	if err != nil {
		return nil, err
	}

	return cs, nil
}

func (svc *Service) ListServices(ctx context.Context, opts ListServicesOptions) ([]*models.CatalogService, error) {
	s, _, err := svc.listServicesWithTotal(ctx, opts)
	return s, errors.WithStack(err)
}

func (svc *Service) ListServicesWithTotal(ctx context.Context, opts ListServicesOptions) ([]*models.CatalogService, int, error) {
	opts.includeTotal = true
	return svc.listServicesWithTotal(ctx, opts)
}

func (svc *Service) listServicesWithTotal(ctx context.Context, opts ListServicesOptions) ([]*models.CatalogService, int, error) {
	var services []*models.CatalogService
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&services).
		Order("cs.name ASC")

	if opts.IsActive != nil {
		q = q.Where("cs.is_active = ?", *opts.IsActive)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	for _, cs := range services {
		cs.Tags, err = svc.entityTags.GetEntityTags(ctx, models.EntityTypeService, cs.ID)
		if err != nil {
			return nil, 0, err
		}
	}

	return services, total, nil
}

// UpdateService writes the given columns and, when tagIDs is non-nil,
// replaces the tag set in the same transaction.
func (svc *Service) UpdateService(ctx context.Context, cs *models.CatalogService, opts UpdateServiceOptions, tagIDs []string) (*entitytags.TagDelta, error) {
	now := time.Now()
	cs.UpdatedAt = now

	var delta *entitytags.TagDelta
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if len(opts.Columns) > 0 {
			columns := append(opts.Columns, "updated_at")
			_, err := tx.NewUpdate().
				Model(cs).
				Column(columns...).
				WherePK().
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}

		if tagIDs == nil {
			return nil
		}
		var err error
		delta, err = svc.entityTags.SetEntityTags(ctx, models.EntityTypeService, cs.ID, tagIDs, tx)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "update catalog service")
	}

	return delta, nil
}

// DeleteService removes the row and its tag associations together. The
// engine doesn't cascade from entity deletion on its own, so a caller that
// skips this cleanup leaves orphaned association rows behind.
func (svc *Service) DeleteService(ctx context.Context, serviceID string) (*entitytags.TagDelta, error) {
	var delta *entitytags.TagDelta
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().
			Model((*models.CatalogService)(nil)).
			Where("id = ?", serviceID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errcodes.NotFound("Service")
		}

		delta, err = svc.entityTags.SetEntityTags(ctx, models.EntityTypeService, serviceID, nil, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	return delta, nil
}
