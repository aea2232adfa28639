package entitytags

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"

	"github.com/bokahq/boka/pkg/database"
	"github.com/bokahq/boka/pkg/ids"
	"github.com/bokahq/boka/pkg/models"
)

// TableReport is the per-legacy-table outcome of a consolidation run.
type TableReport struct {
	Table    string
	Skipped  bool
	Migrated int
	Present  int
}

// ConsolidationReport aggregates a full run.
type ConsolidationReport struct {
	Tables   []TableReport
	Migrated int
	Present  int
}

// Consolidator copies rows from the five per-entity legacy join tables into
// entity_tags. It's re-runnable: rows already present in the unified table
// are counted and left alone, so running it twice changes nothing. It never
// touches usage counts and never deletes the legacy tables; dropping them is
// a separately gated step.
type Consolidator struct {
	db  *bun.DB
	log logger.Logger
}

func NewConsolidator(db *bun.DB) *Consolidator {
	return &Consolidator{
		db:  db,
		log: logger.New(),
	}
}

type legacyRow struct {
	EntityID  string     `bun:"entity_id"`
	TagID     string     `bun:"tag_id"`
	CreatedAt *time.Time `bun:"created_at"`
}

func (c *Consolidator) Run(ctx context.Context) (*ConsolidationReport, error) {
	report := &ConsolidationReport{}

	for _, legacy := range models.LegacyTagTables {
		tr, err := c.consolidateTable(ctx, legacy)
		if err != nil {
			return nil, errors.Wrapf(err, "consolidate %s", legacy.Table)
		}

		report.Tables = append(report.Tables, *tr)
		report.Migrated += tr.Migrated
		report.Present += tr.Present
	}

	c.log.Info("consolidation complete", logger.Data{
		"migrated":        report.Migrated,
		"already_present": report.Present,
	})

	return report, nil
}

func (c *Consolidator) consolidateTable(ctx context.Context, legacy models.LegacyTagTable) (*TableReport, error) {
	tr := &TableReport{Table: legacy.Table}

	exists, err := database.TableExists(ctx, c.db, legacy.Table)
	if err != nil {
		return nil, err
	}
	if !exists {
		// Partially migrated environments won't have every legacy table.
		tr.Skipped = true
		c.log.Info("legacy table not found, skipping", logger.Data{"table": legacy.Table})
		return tr, nil
	}

	rows := []legacyRow{}
	err = c.db.NewRaw(
		"SELECT " + legacy.EntityIDColumn + " AS entity_id, tag_id, created_at FROM " + legacy.Table,
	).Scan(ctx, &rows)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	for _, row := range rows {
		count, err := c.db.NewSelect().
			Model((*models.EntityTag)(nil)).
			Where("entity_type = ? AND entity_id = ? AND tag_id = ?", legacy.EntityType, row.EntityID, row.TagID).
			Count(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if count > 0 {
			tr.Present++
			continue
		}

		id, err := ids.New("etag")
		if err != nil {
			return nil, errors.WithStack(err)
		}

		createdAt := time.Now()
		if row.CreatedAt != nil {
			createdAt = *row.CreatedAt
		}

		_, err = c.db.NewInsert().
			Model(&models.EntityTag{
				ID:         id,
				EntityType: legacy.EntityType,
				EntityID:   row.EntityID,
				TagID:      row.TagID,
				CreatedAt:  createdAt,
			}).
			Exec(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		tr.Migrated++
	}

	c.log.Info("legacy table consolidated", logger.Data{
		"table":           legacy.Table,
		"migrated":        tr.Migrated,
		"already_present": tr.Present,
	})

	return tr, nil
}
