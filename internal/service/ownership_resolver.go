package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dom/wedding-planner/internal/domain"
	"github.com/dom/wedding-planner/internal/platform/logger"
	"github.com/dom/wedding-planner/internal/repository"
)

// DefaultSharingPolicies lists the feature records that follow the couple.
var DefaultSharingPolicies = map[domain.EntityType]domain.SharingPolicy{
	domain.EntityCalendarEvent:    domain.SharingPolicyShared,
	domain.EntityBudgetItem:       domain.SharingPolicyShared,
	domain.EntityChatMemory:       domain.SharingPolicyShared,
	domain.EntityVendorThread:     domain.SharingPolicyShared,
	domain.EntityInvitationDesign: domain.SharingPolicyShared,
}

// OwnershipResolver decides which records a user can see. Feature modules
// must go through it instead of filtering on user id themselves.
type OwnershipResolver struct {
	userRepo repository.UserRepository
	registry *CoupleRegistry
	log      *logger.Logger

	mu       sync.RWMutex
	policies map[domain.EntityType]domain.SharingPolicy
}

func NewOwnershipResolver(userRepo repository.UserRepository, registry *CoupleRegistry, log *logger.Logger) *OwnershipResolver {
	r := &OwnershipResolver{
		userRepo: userRepo,
		registry: registry,
		log:      log.With("component", "service.OwnershipResolver"),
		policies: make(map[domain.EntityType]domain.SharingPolicy),
	}
	for entity, policy := range DefaultSharingPolicies {
		r.policies[entity] = policy
	}
	return r
}

// Register sets the sharing policy for an entity type. Opting out of sharing
// is allowed but always logged.
func (r *OwnershipResolver) Register(entity domain.EntityType, policy domain.SharingPolicy) {
	r.mu.Lock()
	r.policies[entity] = policy
	r.mu.Unlock()

	if policy == domain.SharingPolicyIndividual {
		r.log.Warn("entity type opts out of couple sharing", "entity", entity)
	}
}

func (r *OwnershipResolver) Policy(entity domain.EntityType) (domain.SharingPolicy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.policies[entity]
	return p, ok
}

// OptedOut lists entity types registered as individual, sorted.
func (r *OwnershipResolver) OptedOut() []domain.EntityType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.EntityType
	for entity, policy := range r.policies {
		if policy == domain.SharingPolicyIndividual {
			out = append(out, entity)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ScopeFor returns the couple scope when the user is connected and the
// user's own scope otherwise.
func (r *OwnershipResolver) ScopeFor(ctx context.Context, userID uint64) (domain.Scope, error) {
	user, err := r.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Scope{}, domain.ErrUserNotFound
		}
		return domain.Scope{}, fmt.Errorf("load user: %w", err)
	}

	couple, err := r.registry.ConnectedCouple(ctx, user)
	if err != nil {
		return domain.Scope{}, err
	}
	if couple == nil {
		return domain.UserScope(user.ID), nil
	}
	return domain.CoupleScope(couple), nil
}

// FilterFor builds the query predicate for entity records visible to userID.
func (r *OwnershipResolver) FilterFor(ctx context.Context, entity domain.EntityType, userID uint64) (domain.OwnershipFilter, error) {
	policy, ok := r.Policy(entity)
	if !ok {
		return domain.OwnershipFilter{}, fmt.Errorf("%w: %s", domain.ErrUnknownEntityType, entity)
	}

	scope, err := r.ScopeFor(ctx, userID)
	if err != nil {
		return domain.OwnershipFilter{}, err
	}
	if policy == domain.SharingPolicyIndividual || !scope.IsShared() {
		return domain.OwnershipFilter{UserIDs: []uint64{userID}}, nil
	}

	coupleID := scope.ID
	return domain.OwnershipFilter{CoupleID: &coupleID, UserIDs: scope.MemberIDs}, nil
}

// StampFor returns the owner columns a new entity record is written with.
func (r *OwnershipResolver) StampFor(ctx context.Context, entity domain.EntityType, userID uint64) (uint64, *uint64, error) {
	policy, ok := r.Policy(entity)
	if !ok {
		return 0, nil, fmt.Errorf("%w: %s", domain.ErrUnknownEntityType, entity)
	}

	scope, err := r.ScopeFor(ctx, userID)
	if err != nil {
		return 0, nil, err
	}
	if policy == domain.SharingPolicyIndividual || !scope.IsShared() {
		return userID, nil, nil
	}
	coupleID := scope.ID
	return userID, &coupleID, nil
}
