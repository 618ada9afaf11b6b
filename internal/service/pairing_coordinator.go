package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dom/wedding-planner/internal/domain"
	"github.com/dom/wedding-planner/internal/platform/logger"
	"github.com/dom/wedding-planner/internal/realtime"
	"github.com/dom/wedding-planner/internal/repository"
)

// PairingCoordinator runs the two-sided handshake that turns two accounts
// into a couple. Each side enters the other's key; the couple is connected
// once both entries are on record.
type PairingCoordinator struct {
	repos     *repository.Repositories
	keys      *KeyIssuer
	registry  *CoupleRegistry
	publisher realtime.Publisher
	log       *logger.Logger
	now       func() time.Time
}

func NewPairingCoordinator(repos *repository.Repositories, keys *KeyIssuer, registry *CoupleRegistry, publisher realtime.Publisher, log *logger.Logger) *PairingCoordinator {
	return &PairingCoordinator{
		repos:     repos,
		keys:      keys,
		registry:  registry,
		publisher: publisher,
		log:       log.With("component", "service.PairingCoordinator"),
		now:       time.Now,
	}
}

// KeyStatus is what a user sees about their own pairing state.
type KeyStatus struct {
	Key       *string
	Gender    *domain.Gender
	Connected bool
}

// MyKey returns the user's key, issuing it on first request once a gender
// is chosen.
func (c *PairingCoordinator) MyKey(ctx context.Context, userID uint64) (*KeyStatus, error) {
	user, err := c.loadUser(ctx, c.repos, userID)
	if err != nil {
		return nil, err
	}

	status := &KeyStatus{Gender: user.Gender}
	if user.HasGender() {
		key, err := c.issueKey(ctx, userID)
		if err != nil {
			return nil, err
		}
		status.Key = &key
	}

	status.Connected, err = c.registry.IsConnected(ctx, user)
	if err != nil {
		return nil, err
	}
	return status, nil
}

// SelectGender records the user's role and issues their key. The role is
// fixed once a key exists; repeating the same choice is a no-op.
func (c *PairingCoordinator) SelectGender(ctx context.Context, userID uint64, genderText string) (*KeyStatus, error) {
	gender, ok := domain.ParseGender(genderText)
	if !ok {
		return nil, domain.ErrInvalidGender
	}

	user, err := c.loadUser(ctx, c.repos, userID)
	if err != nil {
		return nil, err
	}
	if user.HasKey() && user.HasGender() && *user.Gender != gender {
		return nil, domain.ErrGenderLocked
	}
	if !user.HasGender() || *user.Gender != gender {
		if err := c.repos.User.SetGender(ctx, userID, gender); err != nil {
			return nil, fmt.Errorf("set gender: %w", err)
		}
		user.Gender = &gender
	}

	key, err := c.issueKey(ctx, userID)
	if err != nil {
		return nil, err
	}

	connected, err := c.registry.IsConnected(ctx, user)
	if err != nil {
		return nil, err
	}
	return &KeyStatus{Key: &key, Gender: user.Gender, Connected: connected}, nil
}

func (c *PairingCoordinator) issueKey(ctx context.Context, userID uint64) (string, error) {
	key, err := c.keys.Issue(ctx, userID)
	if err != nil {
		return "", err
	}
	// The partner's first connect needs this row to exist.
	if _, err := c.registry.EnsureOwned(ctx, userID); err != nil {
		return "", err
	}
	return key, nil
}

// Connect records that userID entered partnerKeyText and connects the couple
// when the partner has already entered the caller's key. The whole exchange
// runs in one transaction with both user rows locked.
func (c *PairingCoordinator) Connect(ctx context.Context, userID uint64, partnerKeyText string) (*domain.ConnectResult, error) {
	var result *domain.ConnectResult
	err := c.repos.Tx.WithinTransaction(ctx, func(tx *repository.Repositories) error {
		res, err := c.connect(ctx, tx, userID, partnerKeyText)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		var pe *domain.PairingError
		if errors.As(err, &pe) {
			c.log.Info("connect rejected", "user_id", userID, "code", pe.Code)
		} else {
			c.log.Error("connect failed", "user_id", userID, "error", err)
		}
		return nil, err
	}

	c.log.Info("connect processed", "user_id", userID, "status", result.Status, "couple_id", result.CoupleID)
	if result.Status == domain.ConnectStatusConnected {
		c.notifyConnected(ctx, userID, result)
	}
	return result, nil
}

func (c *PairingCoordinator) connect(ctx context.Context, tx *repository.Repositories, userID uint64, partnerKeyText string) (*domain.ConnectResult, error) {
	registry := c.registry.in(tx)

	user, err := c.loadUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.checkCaller(ctx, registry, user); err != nil {
		return nil, err
	}

	if err := c.keys.Validate(partnerKeyText); err != nil {
		return nil, err
	}
	partnerKey := NormalizeKey(partnerKeyText)

	partner, err := tx.User.GetByOwnKey(ctx, partnerKey)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrInvalidKey
	}
	if err != nil {
		return nil, fmt.Errorf("resolve partner key: %w", err)
	}
	if partner.ID == user.ID || KeysEqual(partnerKey, *user.OwnKey) {
		return nil, domain.ErrSelfConnect
	}

	locked, err := tx.User.LockForPairing(ctx, user.ID, partner.ID)
	if err != nil {
		return nil, fmt.Errorf("lock pair: %w", err)
	}
	user, partner = locked[user.ID], locked[partner.ID]

	// The other side may have finished while we waited for the locks.
	if err := c.checkCaller(ctx, registry, user); err != nil {
		return nil, err
	}
	if !partner.HasGender() || !partner.HasKey() || !KeysEqual(*partner.OwnKey, partnerKey) {
		return nil, domain.ErrInvalidKey
	}
	if *partner.Gender == *user.Gender {
		return nil, domain.ErrSameGender
	}
	partnerConnected, err := registry.IsConnected(ctx, partner)
	if err != nil {
		return nil, err
	}
	if partnerConnected {
		return nil, domain.ErrPartnerAlreadyConnected
	}

	partnerOwned, err := registry.FindOwnedBy(ctx, partner)
	if err != nil {
		return nil, err
	}
	if partnerOwned == nil {
		return nil, domain.ErrInvalidKey
	}
	callerOwned, err := registry.FindOrCreateOwned(ctx, user)
	if err != nil {
		return nil, err
	}

	if !tx.Capabilities.MutualHandshake {
		return c.connectUnilateral(ctx, tx, registry, user, partner, callerOwned, partnerOwned)
	}

	if err := registry.RecordEntry(ctx, callerOwned, partnerKey); err != nil {
		return nil, err
	}
	if err := tx.User.SetEnteredPartnerKey(ctx, user.ID, partnerKey); err != nil {
		return nil, fmt.Errorf("record entered partner key: %w", err)
	}

	if !isMutual(user, partner, callerOwned, partnerOwned) {
		return &domain.ConnectResult{Status: domain.ConnectStatusPending}, nil
	}
	return c.finalize(ctx, tx, registry, user, partner, callerOwned, partnerOwned)
}

// connectUnilateral serves schemas without the entered-key columns. There
// is nothing to confirm against, so the first caller connects the couple.
func (c *PairingCoordinator) connectUnilateral(ctx context.Context, tx *repository.Repositories, registry *CoupleRegistry, user, partner *domain.User, callerOwned, partnerOwned *domain.Couple) (*domain.ConnectResult, error) {
	c.log.Warn("schema lacks handshake columns, connecting unilaterally",
		"user_id", user.ID, "partner_id", partner.ID, "schema_version", tx.Capabilities.SchemaVersion)
	return c.finalize(ctx, tx, registry, user, partner, callerOwned, partnerOwned)
}

func (c *PairingCoordinator) finalize(ctx context.Context, tx *repository.Repositories, registry *CoupleRegistry, user, partner *domain.User, callerOwned, partnerOwned *domain.Couple) (*domain.ConnectResult, error) {
	canonical, discarded := selectCanonicalRow(callerOwned, partnerOwned)

	second := user.ID
	if canonical.User1ID == user.ID {
		second = partner.ID
	}

	now := c.now().UTC()
	if err := registry.MarkConnected(ctx, canonical, second, now, discarded); err != nil {
		return nil, err
	}
	if err := tx.User.AttachCouple(ctx, canonical.ID, user.ID, partner.ID); err != nil {
		return nil, fmt.Errorf("attach couple: %w", err)
	}

	return &domain.ConnectResult{
		Status:          domain.ConnectStatusConnected,
		CoupleID:        canonical.ID,
		PartnerID:       partner.ID,
		PartnerNickname: partner.DisplayName,
		ConnectedAt:     &now,
	}, nil
}

// selectCanonicalRow decides which owned row becomes the couple. The row
// owned by the partner whose key was entered wins; the caller's row stays
// behind as PENDING with its handshake state cleared.
func selectCanonicalRow(callerOwned, partnerOwned *domain.Couple) (canonical, discarded *domain.Couple) {
	return partnerOwned, callerOwned
}

// isMutual holds when each owned row records the other user's key.
func isMutual(user, partner *domain.User, callerOwned, partnerOwned *domain.Couple) bool {
	if partnerOwned.User1EnteredKey == nil || callerOwned.User1EnteredKey == nil {
		return false
	}
	return KeysEqual(*partnerOwned.User1EnteredKey, *user.OwnKey) &&
		KeysEqual(*callerOwned.User1EnteredKey, *partner.OwnKey)
}

func (c *PairingCoordinator) checkCaller(ctx context.Context, registry *CoupleRegistry, user *domain.User) error {
	if !user.HasGender() {
		return domain.ErrGenderNotSet
	}
	if !user.HasKey() {
		return domain.ErrKeyNotGenerated
	}
	connected, err := registry.IsConnected(ctx, user)
	if err != nil {
		return err
	}
	if connected {
		return domain.ErrAlreadyConnected
	}
	return nil
}

func (c *PairingCoordinator) loadUser(ctx context.Context, repos *repository.Repositories, userID uint64) (*domain.User, error) {
	user, err := repos.User.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (c *PairingCoordinator) notifyConnected(ctx context.Context, userID uint64, result *domain.ConnectResult) {
	if c.publisher == nil {
		return
	}

	partner, err := c.repos.User.GetByID(ctx, result.PartnerID)
	if err != nil {
		c.log.Warn("skip connected notification", "couple_id", result.CoupleID, "error", err)
		return
	}
	caller, err := c.repos.User.GetByID(ctx, userID)
	if err != nil {
		c.log.Warn("skip connected notification", "couple_id", result.CoupleID, "error", err)
		return
	}

	for _, target := range []struct {
		recipient uint64
		other     *domain.User
	}{
		{recipient: caller.ID, other: partner},
		{recipient: partner.ID, other: caller},
	} {
		ev, err := realtime.NewEvent(realtime.EventCoupleConnected, target.recipient, realtime.CoupleConnectedPayload{
			CoupleID:        result.CoupleID,
			PartnerID:       target.other.ID,
			PartnerNickname: target.other.DisplayName,
			ConnectedAt:     *result.ConnectedAt,
		})
		if err != nil {
			c.log.Error("build connected event", "error", err)
			continue
		}
		if err := c.publisher.Publish(ctx, ev); err != nil {
			c.log.Warn("publish connected event", "user_id", target.recipient, "error", err)
		}
	}
}
