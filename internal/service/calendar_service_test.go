package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dom/wedding-planner/internal/domain"
	"github.com/dom/wedding-planner/internal/service"
	"github.com/dom/wedding-planner/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventTitles(events []*domain.CalendarEvent) []string {
	titles := make([]string, 0, len(events))
	for _, e := range events {
		titles = append(titles, e.Title)
	}
	return titles
}

func TestCalendarService_SharedAfterPairing(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	svc, _ := newServices(t, testDB)
	ctx := context.Background()

	a := testutil.NewUserBuilder().Groom("CALSA001").Build(t, testDB.DB)
	b := testutil.NewUserBuilder().Bride("CALSB001").Build(t, testDB.DB)
	base := time.Date(2026, 9, 12, 9, 0, 0, 0, time.UTC)

	before, err := svc.Calendar.Create(ctx, a.ID, service.CreateEventInput{Title: "book photographer", StartsAt: base})
	require.NoError(t, err)
	assert.Nil(t, before.CoupleID)

	events, err := svc.Calendar.List(ctx, b.ID, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, events, "unpaired partner sees nothing")

	coupleID := pair(t, svc, a, b)

	after, err := svc.Calendar.Create(ctx, b.ID, service.CreateEventInput{
		Title:    "cake tasting",
		StartsAt: base.Add(48 * time.Hour),
		Details:  map[string]interface{}{"bakery": "Maison"},
	})
	require.NoError(t, err)
	require.NotNil(t, after.CoupleID)
	assert.Equal(t, coupleID, *after.CoupleID)

	var details map[string]string
	require.NoError(t, json.Unmarshal(after.Details, &details))
	assert.Equal(t, "Maison", details["bakery"])

	for _, u := range []*domain.User{a, b} {
		events, err := svc.Calendar.List(ctx, u.ID, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"book photographer", "cake tasting"}, eventTitles(events))
	}

	from := base.Add(time.Hour)
	events, err = svc.Calendar.List(ctx, a.ID, &from, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"cake tasting"}, eventTitles(events))
}

func TestCalendarService_Validation(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	svc, _ := newServices(t, testDB)
	ctx := context.Background()

	user := testutil.NewUserBuilder().Build(t, testDB.DB)
	start := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	earlier := start.Add(-time.Hour)

	tests := []struct {
		name    string
		input   service.CreateEventInput
		wantErr error
	}{
		{name: "blank title", input: service.CreateEventInput{Title: "  ", StartsAt: start}, wantErr: domain.ErrEventTitleRequired},
		{name: "ends before start", input: service.CreateEventInput{Title: "dinner", StartsAt: start, EndsAt: &earlier}, wantErr: domain.ErrEventInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Calendar.Create(ctx, user.ID, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := svc.Calendar.Create(ctx, 999999, service.CreateEventInput{Title: "ghost", StartsAt: start})
	testutil.AssertPairingError(t, err, domain.ErrUserNotFound)
}
