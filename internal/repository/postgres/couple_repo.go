package postgres

import (
	"context"
	"time"

	"github.com/dom/wedding-planner/internal/domain"
	"github.com/dom/wedding-planner/internal/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type coupleRepository struct {
	db   *gorm.DB
	caps repository.Capabilities
}

func NewCoupleRepository(db *gorm.DB, caps repository.Capabilities) *coupleRepository {
	return &coupleRepository{db: db, caps: caps}
}

func (r *coupleRepository) CreateOwned(ctx context.Context, couple *domain.Couple) (*domain.Couple, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user1_id"}},
			DoNothing: true,
		}).
		Omit("User1EnteredKey", "User2EnteredKey").
		Create(couple)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		// Someone else created it first
		return r.GetOwnedBy(ctx, couple.User1ID, false)
	}
	return couple, nil
}

func (r *coupleRepository) GetByID(ctx context.Context, id uint64) (*domain.Couple, error) {
	var couple domain.Couple
	err := r.db.WithContext(ctx).First(&couple, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &couple, nil
}

func (r *coupleRepository) GetOwnedBy(ctx context.Context, userID uint64, forUpdate bool) (*domain.Couple, error) {
	q := r.db.WithContext(ctx)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var couple domain.Couple
	err := q.Where("user1_id = ?", userID).Take(&couple).Error
	if err != nil {
		return nil, translate(err)
	}
	return &couple, nil
}

func (r *coupleRepository) RecordEntry(ctx context.Context, id uint64, enteredKey string) error {
	if !r.caps.MutualHandshake {
		return repository.ErrHandshakeUnsupported
	}
	res := r.db.WithContext(ctx).
		Model(&domain.Couple{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"user1_entered_key": enteredKey, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *coupleRepository) MarkConnected(ctx context.Context, canonicalID uint64, user2ID uint64, at time.Time, clearIDs ...uint64) error {
	updates := map[string]interface{}{
		"user2_id":     user2ID,
		"status":       domain.CoupleStatusConnected,
		"connected_at": at,
		"updated_at":   at,
	}
	if r.caps.MutualHandshake {
		updates["user1_entered_key"] = nil
		updates["user2_entered_key"] = nil
	}

	// Only a PENDING row may move; a second writer sees zero rows.
	res := r.db.WithContext(ctx).
		Model(&domain.Couple{}).
		Where("id = ? AND status = ?", canonicalID, domain.CoupleStatusPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrConflict
	}

	if !r.caps.MutualHandshake {
		return nil
	}

	others := make([]uint64, 0, len(clearIDs))
	for _, id := range clearIDs {
		if id != canonicalID {
			others = append(others, id)
		}
	}
	if len(others) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&domain.Couple{}).
		Where("id IN ?", others).
		Updates(map[string]interface{}{
			"user1_entered_key": nil,
			"user2_entered_key": nil,
			"updated_at":        at,
		}).Error
}
