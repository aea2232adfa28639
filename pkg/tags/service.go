package tags

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/bokahq/boka/pkg/database"
	"github.com/bokahq/boka/pkg/errcodes"
	"github.com/bokahq/boka/pkg/ids"
	"github.com/bokahq/boka/pkg/models"
)

type RetrieveTagOptions struct {
	ID   *string
	Name *string
}

type ListTagsOptions struct {
	Limit    *int
	Offset   *int
	IsActive *bool
	Search   *string

	includeTotal bool
}

type UpdateTagOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateTag creates a tag, assigning an ID and defaults. usage_count always
// starts at zero; only the reconciler moves it.
func (svc *Service) CreateTag(ctx context.Context, tag *models.Tag) error {
	tag.Name = strings.TrimSpace(tag.Name)
	if tag.Name == "" {
		return errcodes.ValidationError("Tag name cannot be empty")
	}

	now := time.Now()
	if tag.CreatedAt.IsZero() {
		tag.CreatedAt = now
	}
	tag.UpdatedAt = tag.CreatedAt
	if tag.ID == "" {
		id, err := ids.New("tag")
		if err != nil {
			return errors.WithStack(err)
		}
		tag.ID = id
	}
	if tag.Color == "" {
		tag.Color = models.DefaultTagColor
	}
	tag.IsActive = true
	tag.UsageCount = 0

	_, err := svc.db.
		NewInsert().
		Model(tag).
		Returning("*").
		Exec(ctx)
	if isDuplicateNameErr(err) {
		return errcodes.Conflict("Tag with this name already exists")
	}
	return errors.WithStack(err)
}

func (svc *Service) RetrieveTag(ctx context.Context, opts RetrieveTagOptions) (*models.Tag, error) {
	tag := &models.Tag{}

	q := svc.db.
		NewSelect().
		Model(tag)

	if opts.ID != nil {
		q = q.Where("t.id = ?", *opts.ID)
	}
	if opts.Name != nil {
		// Names are unique and case-sensitive.
		q = q.Where("t.name = ?", *opts.Name)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Tag")
		}
		return nil, errors.WithStack(err)
	}

	return tag, nil
}

func (svc *Service) ListTags(ctx context.Context, opts ListTagsOptions) ([]*models.Tag, error) {
	t, _, err := svc.listTagsWithTotal(ctx, opts)
	return t, errors.WithStack(err)
}

func (svc *Service) ListTagsWithTotal(ctx context.Context, opts ListTagsOptions) ([]*models.Tag, int, error) {
	opts.includeTotal = true
	return svc.listTagsWithTotal(ctx, opts)
}

func (svc *Service) listTagsWithTotal(ctx context.Context, opts ListTagsOptions) ([]*models.Tag, int, error) {
	var tags []*models.Tag
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&tags).
		Order("t.name ASC")

	if opts.IsActive != nil {
		q = q.Where("t.is_active = ?", *opts.IsActive)
	}
	if opts.Search != nil && *opts.Search != "" {
		q = q.Where("t.name LIKE ?", "%"+*opts.Search+"%")
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

	return tags, total, nil
}

func (svc *Service) UpdateTag(ctx context.Context, tag *models.Tag, opts UpdateTagOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	now := time.Now()
	tag.UpdatedAt = now
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(tag).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Tag")
		}
		if isDuplicateNameErr(err) {
			return errcodes.Conflict("Tag with this name already exists")
		}
		return errors.WithStack(err)
	}
	return nil
}

// DeleteTag deletes a tag, refusing while any association still references
// it. Callers should deactivate in-use tags instead of deleting them. Both
// the unified table and any legacy join tables still present are checked.
func (svc *Service) DeleteTag(ctx context.Context, tagID string) error {
	count, err := svc.GetAssociationCount(ctx, tagID)
	if err != nil {
		return err
	}
	if count > 0 {
		return errcodes.Conflict("Cannot delete tag that is in use")
	}

	res, err := svc.db.NewDelete().
		Model((*models.Tag)(nil)).
		Where("id = ?", tagID).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errcodes.NotFound("Tag")
	}
	return nil
}

// GetAssociationCount returns the number of live associations referencing the
// tag, across the unified table and whatever legacy join tables still exist.
func (svc *Service) GetAssociationCount(ctx context.Context, tagID string) (int, error) {
	count, err := svc.db.NewSelect().
		Model((*models.EntityTag)(nil)).
		Where("tag_id = ?", tagID).
		Count(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	for _, legacy := range models.LegacyTagTables {
		exists, err := database.TableExists(ctx, svc.db, legacy.Table)
		if err != nil {
			return 0, err
		}
		if !exists {
			continue
		}

		var legacyCount int
		err = svc.db.NewRaw(
			"SELECT COUNT(*) FROM "+legacy.Table+" WHERE tag_id = ?", tagID,
		).Scan(ctx, &legacyCount)
		if err != nil {
			return 0, errors.WithStack(err)
		}
		count += legacyCount
	}

	return count, nil
}

func isDuplicateNameErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed: tags.name") ||
		strings.Contains(err.Error(), "ux_tags_name")
}
