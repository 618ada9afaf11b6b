package service_test

import (
	"context"
	"testing"

	"github.com/dom/wedding-planner/internal/domain"
	"github.com/dom/wedding-planner/internal/platform/logger"
	"github.com/dom/wedding-planner/internal/service"
	"github.com/dom/wedding-planner/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pair(t *testing.T, svc *service.Services, a, b *domain.User) uint64 {
	t.Helper()
	ctx := context.Background()

	_, err := svc.Pairing.Connect(ctx, a.ID, *b.OwnKey)
	require.NoError(t, err)
	res, err := svc.Pairing.Connect(ctx, b.ID, *a.OwnKey)
	require.NoError(t, err)
	require.Equal(t, domain.ConnectStatusConnected, res.Status)
	return res.CoupleID
}

func TestOwnershipResolver_ScopeFor(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	svc, _ := newServices(t, testDB)
	ctx := context.Background()

	a := testutil.NewUserBuilder().Groom("SCOPEA01").Build(t, testDB.DB)
	b := testutil.NewUserBuilder().Bride("SCOPEB01").Build(t, testDB.DB)

	t.Run("unpaired users are their own scope", func(t *testing.T) {
		for _, u := range []*domain.User{a, b} {
			scope, err := svc.Ownership.ScopeFor(ctx, u.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.ScopeKindUser, scope.Kind)
			assert.Equal(t, u.ID, scope.ID)
			assert.False(t, scope.IsShared())
		}
	})

	t.Run("pending is still individual", func(t *testing.T) {
		_, err := svc.Pairing.Connect(ctx, a.ID, "SCOPEB01")
		require.NoError(t, err)

		scope, err := svc.Ownership.ScopeFor(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.UserScope(a.ID), scope)
	})

	t.Run("paired users share the couple scope", func(t *testing.T) {
		res, err := svc.Pairing.Connect(ctx, b.ID, "SCOPEA01")
		require.NoError(t, err)

		scopeA, err := svc.Ownership.ScopeFor(ctx, a.ID)
		require.NoError(t, err)
		scopeB, err := svc.Ownership.ScopeFor(ctx, b.ID)
		require.NoError(t, err)

		assert.Equal(t, scopeA, scopeB)
		assert.Equal(t, res.CoupleID, scopeA.ID)
		assert.True(t, scopeA.IsShared())
		assert.ElementsMatch(t, []uint64{a.ID, b.ID}, scopeA.MemberIDs)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Ownership.ScopeFor(ctx, 999999)
		testutil.AssertPairingError(t, err, domain.ErrUserNotFound)
	})
}

func TestOwnershipResolver_FilterAndStamp(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	svc, _ := newServices(t, testDB)
	ctx := context.Background()

	a := testutil.NewUserBuilder().Groom("FILTA001").Build(t, testDB.DB)
	b := testutil.NewUserBuilder().Bride("FILTB001").Build(t, testDB.DB)
	loner := testutil.NewUserBuilder().Groom("FILTC001").Build(t, testDB.DB)
	coupleID := pair(t, svc, a, b)

	svc.Ownership.Register(domain.EntityChatMemory, domain.SharingPolicyIndividual)
	assert.Equal(t, []domain.EntityType{domain.EntityChatMemory}, svc.Ownership.OptedOut())

	tests := []struct {
		name       string
		entity     domain.EntityType
		userID     uint64
		wantCouple *uint64
		wantUsers  []uint64
	}{
		{name: "shared entity for paired user", entity: domain.EntityCalendarEvent, userID: a.ID, wantCouple: &coupleID, wantUsers: []uint64{a.ID, b.ID}},
		{name: "shared entity for partner", entity: domain.EntityBudgetItem, userID: b.ID, wantCouple: &coupleID, wantUsers: []uint64{a.ID, b.ID}},
		{name: "opted-out entity stays individual", entity: domain.EntityChatMemory, userID: a.ID, wantUsers: []uint64{a.ID}},
		{name: "unpaired user", entity: domain.EntityVendorThread, userID: loner.ID, wantUsers: []uint64{loner.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := svc.Ownership.FilterFor(ctx, tt.entity, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCouple, filter.CoupleID)
			assert.ElementsMatch(t, tt.wantUsers, filter.UserIDs)

			owner, stamped, err := svc.Ownership.StampFor(ctx, tt.entity, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.userID, owner)
			assert.Equal(t, tt.wantCouple, stamped)
			assert.True(t, filter.Matches(owner, stamped), "a record stamped for the user must be visible to them")
		})
	}

	t.Run("unregistered entity", func(t *testing.T) {
		_, err := svc.Ownership.FilterFor(ctx, domain.EntityType("guest_list"), a.ID)
		assert.ErrorIs(t, err, domain.ErrUnknownEntityType)
		_, _, err = svc.Ownership.StampFor(ctx, domain.EntityType("guest_list"), a.ID)
		assert.ErrorIs(t, err, domain.ErrUnknownEntityType)
	})
}

func TestOwnershipResolver_DefaultPolicies(t *testing.T) {
	resolver := service.NewOwnershipResolver(nil, nil, logger.Nop())

	for _, entity := range []domain.EntityType{
		domain.EntityCalendarEvent,
		domain.EntityBudgetItem,
		domain.EntityChatMemory,
		domain.EntityVendorThread,
		domain.EntityInvitationDesign,
	} {
		policy, ok := resolver.Policy(entity)
		assert.True(t, ok, "%s should be registered", entity)
		assert.Equal(t, domain.SharingPolicyShared, policy)
	}
	assert.Empty(t, resolver.OptedOut())
}

func TestOwnershipFilter_Matches(t *testing.T) {
	coupleID := uint64(7)
	other := uint64(8)
	filter := domain.OwnershipFilter{CoupleID: &coupleID, UserIDs: []uint64{1, 2}}

	assert.True(t, filter.Matches(1, nil))
	assert.True(t, filter.Matches(3, &coupleID))
	assert.False(t, filter.Matches(3, &other))
	assert.False(t, filter.Matches(3, nil))
	assert.False(t, domain.OwnershipFilter{}.Matches(1, nil))
}
