package programs_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"baeumcoop.kr/app/internal/modules/programs"
	"baeumcoop.kr/app/internal/testutil"
)

func seed(t *testing.T, db *gorm.DB, slug, status string, price int) programs.Program {
	t.Helper()
	now := time.Now()
	p := programs.Program{
		ID:        uuid.NewString(),
		Title:     "프로그램 " + slug,
		Slug:      slug,
		Price:     price,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestListOpenExcludesDraftAndClosed(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := programs.NewRepo(db)

	seed(t, db, "open-1", programs.StatusOpen, 50000)
	seed(t, db, "draft-1", programs.StatusDraft, 50000)
	seed(t, db, "closed-1", programs.StatusClosed, 50000)

	list, err := repo.ListOpen(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "open-1", list[0].Slug)
}

func TestGetBySlugHidesDrafts(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := programs.NewRepo(db)

	seed(t, db, "visible", programs.StatusClosed, 50000)
	seed(t, db, "hidden", programs.StatusDraft, 50000)

	_, err := repo.GetBySlug(context.Background(), "visible")
	require.NoError(t, err)

	_, err = repo.GetBySlug(context.Background(), "hidden")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestConfirmedCountIgnoresCancelled(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := programs.NewRepo(db)
	prog := seed(t, db, "count", programs.StatusOpen, 50000)

	add := func(status string) {
		now := time.Now()
		part := programs.Participant{
			ID:            uuid.NewString(),
			ProgramID:     prog.ID,
			UserID:        uuid.NewString(),
			OrderID:       "ORD-" + uuid.NewString()[:8],
			Name:          "참가자",
			Status:        status,
			PaymentStatus: programs.PaymentUnpaid,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		require.NoError(t, db.Create(&part).Error)
	}
	add(programs.ParticipantConfirmed)
	add(programs.ParticipantPending)
	add(programs.ParticipantCancelled)

	cnt, err := repo.ConfirmedCount(context.Background(), prog.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, cnt, "pending seats still hold capacity")
}

func TestUpdateAppliesPartialChanges(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := programs.NewRepo(db)
	prog := seed(t, db, "patch-me", programs.StatusDraft, 50000)

	err := repo.Update(context.Background(), prog.ID, map[string]any{
		"status": programs.StatusOpen,
		"price":  70000,
	})
	require.NoError(t, err)

	got, err := repo.GetByID(context.Background(), prog.ID)
	require.NoError(t, err)
	require.Equal(t, programs.StatusOpen, got.Status)
	require.Equal(t, 70000, got.Price)
	require.Equal(t, "프로그램 patch-me", got.Title)
}
