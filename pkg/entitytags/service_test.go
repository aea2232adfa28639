package entitytags

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/bokahq/boka/pkg/errcodes"
	"github.com/bokahq/boka/pkg/ids"
	"github.com/bokahq/boka/pkg/migrations"
	"github.com/bokahq/boka/pkg/models"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = db.ExecContext(context.Background(), "PRAGMA foreign_keys = ON")
	require.NoError(t, err)

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func createTag(t *testing.T, db *bun.DB, name string) *models.Tag {
	t.Helper()

	now := time.Now()
	tag := &models.Tag{
		ID:        ids.MustNew("tag"),
		CreatedAt: now,
		UpdatedAt: now,
		Name:      name,
		Color:     models.DefaultTagColor,
		IsActive:  true,
	}
	_, err := db.NewInsert().Model(tag).Exec(context.Background())
	require.NoError(t, err)
	return tag
}

func tagIDsOf(tags []*models.Tag) []string {
	out := []string{}
	for _, tag := range tags {
		out = append(out, tag.ID)
	}
	return out
}

func TestSetEntityTags_ReplacesWholeSet(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	t1 := createTag(t, db, "color")
	t2 := createTag(t, db, "cut")
	t3 := createTag(t, db, "spa")

	delta, err := svc.SetEntityTags(ctx, models.EntityTypeService, "svc1", []string{t1.ID, t2.ID}, nil)
	require.NoError(t, err)
	assert.Empty(t, delta.Old)
	assert.ElementsMatch(t, []string{t1.ID, t2.ID}, delta.New)

	delta, err = svc.SetEntityTags(ctx, models.EntityTypeService, "svc1", []string{t3.ID}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{t1.ID, t2.ID}, delta.Old)
	assert.ElementsMatch(t, []string{t3.ID}, delta.New)

	tags, err := svc.GetEntityTags(ctx, models.EntityTypeService, "svc1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{t3.ID}, tagIDsOf(tags))
}

func TestSetEntityTags_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	t1 := createTag(t, db, "balayage")
	t2 := createTag(t, db, "keratin")
	set := []string{t1.ID, t2.ID}

	_, err := svc.SetEntityTags(ctx, models.EntityTypeProduct, "prod1", set, nil)
	require.NoError(t, err)

	delta, err := svc.SetEntityTags(ctx, models.EntityTypeProduct, "prod1", set, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, set, delta.Old)
	assert.ElementsMatch(t, set, delta.New)

	tags, err := svc.GetEntityTags(ctx, models.EntityTypeProduct, "prod1")
	require.NoError(t, err)
	assert.ElementsMatch(t, set, tagIDsOf(tags))
}

func TestSetEntityTags_DeduplicatesInput(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	t1 := createTag(t, db, "vip")

	delta, err := svc.SetEntityTags(ctx, models.EntityTypeCompany, "co1", []string{t1.ID, t1.ID, t1.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{t1.ID}, delta.New)

	tags, err := svc.GetEntityTags(ctx, models.EntityTypeCompany, "co1")
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestSetEntityTags_ScopedPerEntity(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	t1 := createTag(t, db, "shared")

	_, err := svc.SetEntityTags(ctx, models.EntityTypeService, "svc1", []string{t1.ID}, nil)
	require.NoError(t, err)
	_, err = svc.SetEntityTags(ctx, models.EntityTypeSpace, "svc1", []string{t1.ID}, nil)
	require.NoError(t, err)

	// Same entity ID under a different type is a different entity.
	_, err = svc.SetEntityTags(ctx, models.EntityTypeService, "svc1", nil, nil)
	require.NoError(t, err)

	tags, err := svc.GetEntityTags(ctx, models.EntityTypeSpace, "svc1")
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestGetEntityTags_EmptyIsNotAnError(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	tags, err := svc.GetEntityTags(context.Background(), models.EntityTypeAppointment, "appt-without-tags")
	require.NoError(t, err)
	assert.NotNil(t, tags)
	assert.Empty(t, tags)
}

func TestGetEntityTags_OrderedByName(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	zebra := createTag(t, db, "zebra")
	alpha := createTag(t, db, "alpha")
	mango := createTag(t, db, "mango")

	_, err := svc.SetEntityTags(ctx, models.EntityTypeStaff, "staff1", []string{zebra.ID, alpha.ID, mango.ID}, nil)
	require.NoError(t, err)

	tags, err := svc.GetEntityTags(ctx, models.EntityTypeStaff, "staff1")
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "alpha", tags[0].Name)
	assert.Equal(t, "mango", tags[1].Name)
	assert.Equal(t, "zebra", tags[2].Name)
}

func TestValidation_FailsFastBeforeAnyWrite(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.SetEntityTags(ctx, "invoice", "inv1", nil, nil)
	require.Error(t, err)
	var e *errcodes.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "validation_error", e.Code)

	_, err = svc.GetEntityTags(ctx, models.EntityTypeService, "")
	require.Error(t, err)

	_, err = svc.AddEntityTags(ctx, "", "x", []string{"tag_x"}, nil)
	require.Error(t, err)

	count, err := db.NewSelect().Model((*models.EntityTag)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAddEntityTags_OnlyAddsMissing(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	t1 := createTag(t, db, "walk-in")
	t2 := createTag(t, db, "regular")

	added, err := svc.AddEntityTags(ctx, models.EntityTypeUser, "user1", []string{t1.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{t1.ID}, added)

	// t1 is already present, so only t2 gets added.
	added, err = svc.AddEntityTags(ctx, models.EntityTypeUser, "user1", []string{t1.ID, t2.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{t2.ID}, added)

	// Fully idempotent when everything is present.
	added, err = svc.AddEntityTags(ctx, models.EntityTypeUser, "user1", []string{t1.ID, t2.ID}, nil)
	require.NoError(t, err)
	assert.Empty(t, added)

	tags, err := svc.GetEntityTags(ctx, models.EntityTypeUser, "user1")
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestRemoveEntityTags_IgnoresAbsent(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	t1 := createTag(t, db, "discount")
	t2 := createTag(t, db, "seasonal")

	_, err := svc.SetEntityTags(ctx, models.EntityTypeCompanyProduct, "cp1", []string{t1.ID}, nil)
	require.NoError(t, err)

	removed, err := svc.RemoveEntityTags(ctx, models.EntityTypeCompanyProduct, "cp1", []string{t1.ID, t2.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{t1.ID}, removed)

	// Removing again is a no-op.
	removed, err = svc.RemoveEntityTags(ctx, models.EntityTypeCompanyProduct, "cp1", []string{t1.ID}, nil)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestSetEntityTags_ParticipatesInCallerTransaction(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	t1 := createTag(t, db, "rolled-back")

	sentinel := errors.New("caller decided to roll back")
	err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		delta, err := svc.SetEntityTags(ctx, models.EntityTypeSpace, "room1", []string{t1.ID}, tx)
		require.NoError(t, err)
		assert.Equal(t, []string{t1.ID}, delta.New)
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	// The caller rolled back, so nothing was persisted.
	tags, err := svc.GetEntityTags(ctx, models.EntityTypeSpace, "room1")
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestSetEntityTags_UnknownTagIDFailsWholeUnit(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	t1 := createTag(t, db, "valid")

	_, err := svc.SetEntityTags(ctx, models.EntityTypeService, "svc1", []string{t1.ID}, nil)
	require.NoError(t, err)

	// FK violation on the bogus ID aborts the whole replace.
	_, err = svc.SetEntityTags(ctx, models.EntityTypeService, "svc1", []string{t1.ID, "tag_does_not_exist"}, nil)
	require.Error(t, err)

	// The previous set survives because the transaction rolled back.
	tags, err := svc.GetEntityTags(ctx, models.EntityTypeService, "svc1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{t1.ID}, tagIDsOf(tags))
}

func TestTagDeletionCascadesToAssociations(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	t1 := createTag(t, db, "doomed")

	_, err := svc.SetEntityTags(ctx, models.EntityTypeProduct, "prod1", []string{t1.ID}, nil)
	require.NoError(t, err)

	_, err = db.NewDelete().Model((*models.Tag)(nil)).Where("id = ?", t1.ID).Exec(ctx)
	require.NoError(t, err)

	tags, err := svc.GetEntityTags(ctx, models.EntityTypeProduct, "prod1")
	require.NoError(t, err)
	assert.Empty(t, tags)
}
