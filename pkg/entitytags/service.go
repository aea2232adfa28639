// Package entitytags owns the polymorphic association between tags and every
// kind of taggable entity. It is the only writer of the entity_tags table.
package entitytags

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/bokahq/boka/pkg/errcodes"
	"github.com/bokahq/boka/pkg/ids"
	"github.com/bokahq/boka/pkg/models"
)

// TagDelta is the before/after tag ID sets of a replace operation. Callers
// hand it to the reconciler after their transaction commits; SetEntityTags
// itself never touches usage counts.
type TagDelta struct {
	Old []string `json:"old_tag_ids"`
	New []string `json:"new_tag_ids"`
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// GetEntityTags returns the tags associated with an entity, ordered by tag
// name. An entity with no associations gets an empty slice, not an error.
func (svc *Service) GetEntityTags(ctx context.Context, entityType models.EntityType, entityID string) ([]*models.Tag, error) {
	if err := validateEntity(entityType, entityID); err != nil {
		return nil, err
	}

	tags := []*models.Tag{}
	err := svc.db.NewSelect().
		Model(&tags).
		Join("INNER JOIN entity_tags et ON et.tag_id = t.id").
		Where("et.entity_type = ? AND et.entity_id = ?", entityType, entityID).
		Order("t.name ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return tags, nil
}

// SetEntityTags replaces the entity's association set with tagIDs in one
// atomic unit of work and returns the before/after ID sets.
//
// If idb is nil the service owns the transaction (begin, commit, rollback).
// Passing a bun.Tx makes the three steps participate in the caller's
// transaction instead; the caller then controls commit and rollback.
func (svc *Service) SetEntityTags(ctx context.Context, entityType models.EntityType, entityID string, tagIDs []string, idb bun.IDB) (*TagDelta, error) {
	if err := validateEntity(entityType, entityID); err != nil {
		return nil, err
	}

	if idb == nil {
		idb = svc.db
	}

	var delta *TagDelta
	// bun.Tx implements RunInTx by running the function on the open
	// transaction, so this line is what makes ownership vs participation
	// work.
	err := idb.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var err error
		delta, err = svc.replaceTags(ctx, tx, entityType, entityID, tagIDs)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "set tags for %s %q", entityType, entityID)
	}

	return delta, nil
}

func (svc *Service) replaceTags(ctx context.Context, tx bun.Tx, entityType models.EntityType, entityID string, tagIDs []string) (*TagDelta, error) {
	oldIDs, err := svc.readTagIDs(ctx, tx, entityType, entityID)
	if err != nil {
		return nil, err
	}

	_, err = tx.NewDelete().
		Model((*models.EntityTag)(nil)).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	newIDs := dedupe(tagIDs)
	if err := svc.insertAssociations(ctx, tx, entityType, entityID, newIDs); err != nil {
		return nil, err
	}

	return &TagDelta{Old: oldIDs, New: newIDs}, nil
}

// AddEntityTags associates only the given IDs that aren't already present.
// It returns the IDs it actually added, so the caller can enqueue increments
// for exactly those. Idempotent with respect to already-present tags.
func (svc *Service) AddEntityTags(ctx context.Context, entityType models.EntityType, entityID string, tagIDs []string, idb bun.IDB) ([]string, error) {
	if err := validateEntity(entityType, entityID); err != nil {
		return nil, err
	}

	if idb == nil {
		idb = svc.db
	}

	var added []string
	err := idb.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		existing, err := svc.readTagIDs(ctx, tx, entityType, entityID)
		if err != nil {
			return err
		}

		present := map[string]bool{}
		for _, id := range existing {
			present[id] = true
		}

		added = []string{}
		for _, id := range dedupe(tagIDs) {
			if !present[id] {
				added = append(added, id)
			}
		}

		return svc.insertAssociations(ctx, tx, entityType, entityID, added)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "add tags for %s %q", entityType, entityID)
	}

	return added, nil
}

// RemoveEntityTags deletes exactly the given IDs from the association set.
// Absent IDs are silently ignored; the returned slice holds the IDs that were
// actually present and removed.
func (svc *Service) RemoveEntityTags(ctx context.Context, entityType models.EntityType, entityID string, tagIDs []string, idb bun.IDB) ([]string, error) {
	if err := validateEntity(entityType, entityID); err != nil {
		return nil, err
	}

	if idb == nil {
		idb = svc.db
	}

	var removed []string
	err := idb.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		existing, err := svc.readTagIDs(ctx, tx, entityType, entityID)
		if err != nil {
			return err
		}

		present := map[string]bool{}
		for _, id := range existing {
			present[id] = true
		}

		removed = []string{}
		for _, id := range dedupe(tagIDs) {
			if present[id] {
				removed = append(removed, id)
			}
		}
		if len(removed) == 0 {
			return nil
		}

		_, err = tx.NewDelete().
			Model((*models.EntityTag)(nil)).
			Where("entity_type = ? AND entity_id = ?", entityType, entityID).
			Where("tag_id IN (?)", bun.In(removed)).
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "remove tags for %s %q", entityType, entityID)
	}

	return removed, nil
}

func (svc *Service) readTagIDs(ctx context.Context, tx bun.Tx, entityType models.EntityType, entityID string) ([]string, error) {
	tagIDs := []string{}
	err := tx.NewSelect().
		Model((*models.EntityTag)(nil)).
		Column("tag_id").
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Scan(ctx, &tagIDs)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return tagIDs, nil
}

func (svc *Service) insertAssociations(ctx context.Context, tx bun.Tx, entityType models.EntityType, entityID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]*models.EntityTag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		id, err := ids.New("etag")
		if err != nil {
			return errors.WithStack(err)
		}
		rows = append(rows, &models.EntityTag{
			ID:         id,
			EntityType: entityType,
			EntityID:   entityID,
			TagID:      tagID,
			CreatedAt:  now,
		})
	}

	_, err := tx.NewInsert().
		Model(&rows).
		Exec(ctx)
	return errors.WithStack(err)
}

// validateEntity fails fast on unknown entity types and empty IDs before any
// store access, so garbage rows never reach the association table.
func validateEntity(entityType models.EntityType, entityID string) error {
	if !entityType.Valid() {
		return errcodes.ValidationError(fmt.Sprintf("Unknown entity type %q", entityType))
	}
	if entityID == "" {
		return errcodes.ValidationError(`"entity_id" is required`)
	}
	return nil
}

func dedupe(tagIDs []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, id := range tagIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
