package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dom/wedding-planner/internal/domain"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("conflicting write")
	// ErrHandshakeUnsupported is returned for entered-key writes on a schema
	// older than the handshake migration.
	ErrHandshakeUnsupported = errors.New("schema does not support the pairing handshake")
)

// Capabilities describes what the migrated schema supports. It is derived
// from the migration version at startup, never from probing columns.
type Capabilities struct {
	SchemaVersion uint
	// MutualHandshake is false on schemas that predate the entered-key
	// columns; pairing then falls back to a unilateral connect.
	MutualHandshake bool
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uint64) (*domain.User, error)
	GetByOwnKey(ctx context.Context, key string) (*domain.User, error)
	// LockForPairing locks both rows in ascending id order.
	LockForPairing(ctx context.Context, a, b uint64) (map[uint64]*domain.User, error)
	SetGender(ctx context.Context, id uint64, gender domain.Gender) error
	// SetOwnKey only writes when the user has no key yet. It reports whether
	// the row was updated and returns ErrConflict on a duplicate key.
	SetOwnKey(ctx context.Context, id uint64, key string) (bool, error)
	SetEnteredPartnerKey(ctx context.Context, id uint64, key string) error
	// AttachCouple points every given user at coupleID and clears their
	// entered partner keys.
	AttachCouple(ctx context.Context, coupleID uint64, userIDs ...uint64) error
}

type CoupleRepository interface {
	// CreateOwned inserts a PENDING row for user1 unless one exists and
	// returns the stored row either way.
	CreateOwned(ctx context.Context, couple *domain.Couple) (*domain.Couple, error)
	GetByID(ctx context.Context, id uint64) (*domain.Couple, error)
	GetOwnedBy(ctx context.Context, userID uint64, forUpdate bool) (*domain.Couple, error)
	RecordEntry(ctx context.Context, id uint64, enteredKey string) error
	// MarkConnected moves canonicalID to CONNECTED and clears handshake state
	// on canonicalID and every id in clearIDs.
	MarkConnected(ctx context.Context, canonicalID uint64, user2ID uint64, at time.Time, clearIDs ...uint64) error
}

type CalendarEventRepository interface {
	Create(ctx context.Context, event *domain.CalendarEvent) error
	List(ctx context.Context, filter domain.OwnershipFilter, from, to *time.Time) ([]*domain.CalendarEvent, error)
}

// Transactor runs fn against repositories bound to a single transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(repos *Repositories) error) error
}

type Repositories struct {
	User          UserRepository
	Couple        CoupleRepository
	CalendarEvent CalendarEventRepository
	Tx            Transactor
	Capabilities  Capabilities
}
