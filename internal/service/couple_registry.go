package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dom/wedding-planner/internal/domain"
	"github.com/dom/wedding-planner/internal/platform/logger"
	"github.com/dom/wedding-planner/internal/repository"
)

// CoupleRegistry owns the lifecycle of couple rows.
type CoupleRegistry struct {
	repos *repository.Repositories
	log   *logger.Logger
}

func NewCoupleRegistry(repos *repository.Repositories, log *logger.Logger) *CoupleRegistry {
	return &CoupleRegistry{
		repos: repos,
		log:   log.With("component", "service.CoupleRegistry"),
	}
}

// in returns a registry bound to the repositories of an open transaction.
func (r *CoupleRegistry) in(repos *repository.Repositories) *CoupleRegistry {
	return &CoupleRegistry{repos: repos, log: r.log}
}

// FindOrCreateOwned returns the row the user owns as initiator, creating a
// PENDING one on first use. Inside a transaction the row is locked.
func (r *CoupleRegistry) FindOrCreateOwned(ctx context.Context, user *domain.User) (*domain.Couple, error) {
	if !user.HasKey() {
		return nil, domain.ErrKeyNotGenerated
	}

	existing, err := r.repos.Couple.GetOwnedBy(ctx, user.ID, true)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load owned couple: %w", err)
	}

	created, err := r.repos.Couple.CreateOwned(ctx, &domain.Couple{
		InitiatorKey: *user.OwnKey,
		User1ID:      user.ID,
		Status:       domain.CoupleStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("create owned couple: %w", err)
	}
	r.log.Debug("couple row created", "couple_id", created.ID, "user_id", user.ID)
	return created, nil
}

// FindOwnedBy returns the row the given user owns, or nil when there is none.
func (r *CoupleRegistry) FindOwnedBy(ctx context.Context, user *domain.User) (*domain.Couple, error) {
	couple, err := r.repos.Couple.GetOwnedBy(ctx, user.ID, true)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load partner couple: %w", err)
	}
	return couple, nil
}

// EnsureOwned creates the user's PENDING row if it does not exist yet. It is
// called as soon as a key is issued so the row is there when the partner
// enters that key.
func (r *CoupleRegistry) EnsureOwned(ctx context.Context, userID uint64) (*domain.Couple, error) {
	user, err := r.repos.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.FindOrCreateOwned(ctx, user)
}

// RecordEntry stores the key the owner of couple entered.
func (r *CoupleRegistry) RecordEntry(ctx context.Context, couple *domain.Couple, enteredKey string) error {
	if err := r.repos.Couple.RecordEntry(ctx, couple.ID, enteredKey); err != nil {
		return fmt.Errorf("record entered key: %w", err)
	}
	couple.User1EnteredKey = &enteredKey
	return nil
}

// MarkConnected finalizes canonical with user2ID as second member and clears
// handshake state on every row passed in.
func (r *CoupleRegistry) MarkConnected(ctx context.Context, canonical *domain.Couple, user2ID uint64, at time.Time, others ...*domain.Couple) error {
	clearIDs := make([]uint64, 0, len(others))
	for _, c := range others {
		if c != nil {
			clearIDs = append(clearIDs, c.ID)
		}
	}

	err := r.repos.Couple.MarkConnected(ctx, canonical.ID, user2ID, at, clearIDs...)
	if errors.Is(err, repository.ErrConflict) {
		return domain.ErrPartnerAlreadyConnected
	}
	if err != nil {
		return fmt.Errorf("mark couple connected: %w", err)
	}

	canonical.User2ID = &user2ID
	canonical.Status = domain.CoupleStatusConnected
	canonical.ConnectedAt = &at
	canonical.User1EnteredKey = nil
	canonical.User2EnteredKey = nil
	for _, c := range others {
		if c != nil {
			c.User1EnteredKey = nil
			c.User2EnteredKey = nil
		}
	}
	return nil
}

// ConnectedCouple returns the user's CONNECTED couple, or nil when the user
// is not paired.
func (r *CoupleRegistry) ConnectedCouple(ctx context.Context, user *domain.User) (*domain.Couple, error) {
	if user.CoupleID == nil {
		return nil, nil
	}
	couple, err := r.repos.Couple.GetByID(ctx, *user.CoupleID)
	if errors.Is(err, repository.ErrNotFound) {
		r.log.Warn("user references missing couple", "user_id", user.ID, "couple_id", *user.CoupleID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load couple: %w", err)
	}
	if !couple.IsConnected() {
		return nil, nil
	}
	return couple, nil
}

func (r *CoupleRegistry) IsConnected(ctx context.Context, user *domain.User) (bool, error) {
	couple, err := r.ConnectedCouple(ctx, user)
	if err != nil {
		return false, err
	}
	return couple != nil, nil
}

// CoupleInfo describes a user's pairing state for display.
type CoupleInfo struct {
	Connected   bool
	CoupleID    uint64
	Partner     *domain.User
	ConnectedAt *time.Time
}

func (r *CoupleRegistry) Info(ctx context.Context, userID uint64) (*CoupleInfo, error) {
	user, err := r.repos.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	couple, err := r.ConnectedCouple(ctx, user)
	if err != nil {
		return nil, err
	}
	if couple == nil {
		return &CoupleInfo{}, nil
	}

	info := &CoupleInfo{Connected: true, CoupleID: couple.ID, ConnectedAt: couple.ConnectedAt}
	if partnerID, ok := couple.PartnerOf(user.ID); ok {
		partner, err := r.repos.User.GetByID(ctx, partnerID)
		if err != nil {
			return nil, fmt.Errorf("load partner: %w", err)
		}
		info.Partner = partner
	}
	return info, nil
}
