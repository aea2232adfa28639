package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE tags (
				id TEXT PRIMARY KEY,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL,
				description TEXT,
				color TEXT NOT NULL DEFAULT '#3B82F6',
				icon TEXT,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				usage_count INTEGER NOT NULL DEFAULT 0 CHECK (usage_count >= 0)
			)
		`)
		if err != nil {
			return errors.WithStack(err)
		}

		// Tag names are unique and case-sensitive.
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_tags_name ON tags (name)`)
		if err != nil {
			return errors.WithStack(err)
		}

		// entity_id is an opaque string scoped by entity_type; the entity
		// tables live elsewhere, so tag_id is the only enforceable FK.
		_, err = db.Exec(`
			CREATE TABLE entity_tags (
				id TEXT PRIMARY KEY,
				entity_type TEXT NOT NULL CHECK (entity_type IN (
					'appointment', 'staff', 'space', 'service',
					'product', 'user', 'company', 'company_product'
				)),
				entity_id TEXT NOT NULL,
				tag_id TEXT REFERENCES tags (id) ON DELETE CASCADE NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
			)
		`)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.Exec(`CREATE UNIQUE INDEX ux_entity_tags ON entity_tags (entity_type, entity_id, tag_id)`)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.Exec(`CREATE INDEX ix_entity_tags_entity ON entity_tags (entity_type, entity_id)`)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.Exec(`CREATE INDEX ix_entity_tags_tag_id ON entity_tags (tag_id)`)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`DROP TABLE IF EXISTS entity_tags`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`DROP TABLE IF EXISTS tags`)
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
