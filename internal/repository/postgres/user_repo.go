package postgres

import (
	"context"
	"time"

	"github.com/dom/wedding-planner/internal/domain"
	"github.com/dom/wedding-planner/internal/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db   *gorm.DB
	caps repository.Capabilities
}

func NewUserRepository(db *gorm.DB, caps repository.Capabilities) *userRepository {
	return &userRepository{db: db, caps: caps}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	q := r.db.WithContext(ctx)
	if !r.caps.MutualHandshake {
		q = q.Omit("EnteredPartnerKey")
	}
	return translate(q.Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id uint64) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) GetByOwnKey(ctx context.Context, key string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "own_key = ?", key).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) LockForPairing(ctx context.Context, a, b uint64) (map[uint64]*domain.User, error) {
	ids := []uint64{a, b}
	if a == b {
		ids = ids[:1]
	}

	var users []*domain.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	if len(users) != len(ids) {
		return nil, repository.ErrNotFound
	}

	locked := make(map[uint64]*domain.User, len(users))
	for _, u := range users {
		locked[u.ID] = u
	}
	return locked, nil
}

func (r *userRepository) SetGender(ctx context.Context, id uint64, gender domain.Gender) error {
	res := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"gender": gender, "updated_at": time.Now()})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepository) SetOwnKey(ctx context.Context, id uint64, key string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ? AND own_key IS NULL", id).
		Updates(map[string]interface{}{"own_key": key, "updated_at": time.Now()})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *userRepository) SetEnteredPartnerKey(ctx context.Context, id uint64, key string) error {
	if !r.caps.MutualHandshake {
		return repository.ErrHandshakeUnsupported
	}
	return r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"entered_partner_key": key, "updated_at": time.Now()}).Error
}

func (r *userRepository) AttachCouple(ctx context.Context, coupleID uint64, userIDs ...uint64) error {
	if len(userIDs) == 0 {
		return nil
	}
	updates := map[string]interface{}{"couple_id": coupleID, "updated_at": time.Now()}
	if r.caps.MutualHandshake {
		updates["entered_partner_key"] = nil
	}
	return r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id IN ?", userIDs).
		Updates(updates).Error
}
