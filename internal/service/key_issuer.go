package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/dom/wedding-planner/internal/domain"
	"github.com/dom/wedding-planner/internal/platform/logger"
	"github.com/dom/wedding-planner/internal/repository"
)

const keyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// minKeyLength matches the lower bound config accepts for PAIRING_KEY_LENGTH.
const minKeyLength = 4

var ErrKeySpaceExhausted = errors.New("could not issue a unique couple key")

// KeyGenerator returns a random key of the given length.
type KeyGenerator func(length int) (string, error)

// KeyIssuer hands out the short, human-typeable key each user shares with
// their partner. A user keeps the same key for life.
type KeyIssuer struct {
	userRepo    repository.UserRepository
	length      int
	maxAttempts int
	generate    KeyGenerator
	log         *logger.Logger
}

func NewKeyIssuer(userRepo repository.UserRepository, length, maxAttempts int, log *logger.Logger) *KeyIssuer {
	return &KeyIssuer{
		userRepo:    userRepo,
		length:      length,
		maxAttempts: maxAttempts,
		generate:    randomKey,
		log:         log.With("component", "service.KeyIssuer"),
	}
}

// WithGenerator swaps the random source, mainly to force collisions in tests.
func (k *KeyIssuer) WithGenerator(gen KeyGenerator) *KeyIssuer {
	k.generate = gen
	return k
}

// Issue returns the user's key, generating and storing one on first call.
// Concurrent calls for the same user all observe the same stored key.
func (k *KeyIssuer) Issue(ctx context.Context, userID uint64) (string, error) {
	user, err := k.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.ErrUserNotFound
		}
		return "", err
	}
	if !user.HasGender() {
		return "", domain.ErrGenderNotSet
	}
	if user.HasKey() {
		return *user.OwnKey, nil
	}

	for attempt := 1; attempt <= k.maxAttempts; attempt++ {
		candidate, err := k.generate(k.length)
		if err != nil {
			return "", fmt.Errorf("generate couple key: %w", err)
		}

		updated, err := k.userRepo.SetOwnKey(ctx, userID, candidate)
		if errors.Is(err, repository.ErrConflict) {
			k.log.Debug("couple key collision, retrying", "user_id", userID, "attempt", attempt)
			continue
		}
		if err != nil {
			return "", err
		}
		if updated {
			k.log.Info("couple key issued", "user_id", userID, "attempts", attempt)
			return candidate, nil
		}

		// A concurrent request stored a key first; that one wins.
		current, err := k.userRepo.GetByID(ctx, userID)
		if err != nil {
			return "", err
		}
		if current.HasKey() {
			return *current.OwnKey, nil
		}
	}

	k.log.Error("couple key issuance exhausted", "user_id", userID, "attempts", k.maxAttempts)
	return "", ErrKeySpaceExhausted
}

// Validate checks the shape of a key typed by a user, after normalization.
// Keys shorter than the configured length are accepted so that keys issued
// before PAIRING_KEY_LENGTH was raised still resolve.
func (k *KeyIssuer) Validate(candidate string) error {
	key := NormalizeKey(candidate)
	if len(key) < minKeyLength || len(key) > k.length {
		return domain.ErrMalformedKey
	}
	for _, r := range key {
		if !strings.ContainsRune(keyAlphabet, r) {
			return domain.ErrMalformedKey
		}
	}
	return nil
}

// NormalizeKey trims surrounding whitespace and upper-cases.
func NormalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// KeysEqual compares two keys after normalization.
func KeysEqual(a, b string) bool {
	return NormalizeKey(a) == NormalizeKey(b)
}

func randomKey(length int) (string, error) {
	max := big.NewInt(int64(len(keyAlphabet)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(keyAlphabet[n.Int64()])
	}
	return b.String(), nil
}
