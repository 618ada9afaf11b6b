package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/dom/wedding-planner/internal/domain"
	"github.com/dom/wedding-planner/internal/repository/postgres"
	"github.com/dom/wedding-planner/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestCalendarEventRepository_ListByFilter(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repo := postgres.NewCalendarEventRepository(testDB.DB)
	ctx := context.Background()

	groom := testutil.NewUserBuilder().Groom("CALG0001").Build(t, testDB.DB)
	bride := testutil.NewUserBuilder().Bride("CALB0001").Build(t, testDB.DB)
	other := testutil.NewUserBuilder().Build(t, testDB.DB)
	coupleID := testutil.OwnedCouple(t, testDB.DB, bride.ID).ID

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	events := []*domain.CalendarEvent{
		{UserID: groom.ID, Title: "suit fitting", StartsAt: base},
		{UserID: bride.ID, CoupleID: &coupleID, Title: "venue tour", StartsAt: base.Add(24 * time.Hour),
			Details: datatypes.JSON(`{"venue":"Grand Hall"}`)},
		{UserID: other.ID, Title: "unrelated", StartsAt: base},
	}
	for _, e := range events {
		require.NoError(t, repo.Create(ctx, e))
	}

	tests := []struct {
		name   string
		filter domain.OwnershipFilter
		from   *time.Time
		want   []string
	}{
		{
			name:   "individual filter",
			filter: domain.OwnershipFilter{UserIDs: []uint64{groom.ID}},
			want:   []string{"suit fitting"},
		},
		{
			name:   "couple filter includes both members",
			filter: domain.OwnershipFilter{CoupleID: &coupleID, UserIDs: []uint64{bride.ID, groom.ID}},
			want:   []string{"suit fitting", "venue tour"},
		},
		{
			name:   "couple filter with start bound",
			filter: domain.OwnershipFilter{CoupleID: &coupleID, UserIDs: []uint64{bride.ID, groom.ID}},
			from:   func() *time.Time { t := base.Add(time.Hour); return &t }(),
			want:   []string{"venue tour"},
		},
		{
			name:   "empty filter matches nothing",
			filter: domain.OwnershipFilter{},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter, tt.from, nil)
			require.NoError(t, err)

			titles := make([]string, 0, len(got))
			for _, e := range got {
				titles = append(titles, e.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}
