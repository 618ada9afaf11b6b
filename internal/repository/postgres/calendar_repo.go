package postgres

import (
	"context"
	"time"

	"github.com/dom/wedding-planner/internal/domain"
	"gorm.io/gorm"
)

type calendarEventRepository struct {
	db *gorm.DB
}

func NewCalendarEventRepository(db *gorm.DB) *calendarEventRepository {
	return &calendarEventRepository{db: db}
}

func (r *calendarEventRepository) Create(ctx context.Context, event *domain.CalendarEvent) error {
	return translate(r.db.WithContext(ctx).Create(event).Error)
}

func (r *calendarEventRepository) List(ctx context.Context, filter domain.OwnershipFilter, from, to *time.Time) ([]*domain.CalendarEvent, error) {
	q := r.db.WithContext(ctx).Scopes(Owned(filter))
	if from != nil {
		q = q.Where("starts_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("starts_at < ?", *to)
	}

	var events []*domain.CalendarEvent
	if err := q.Order("starts_at").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Owned turns an ownership filter into a gorm scope. Every table that holds
// shared feature records carries user_id and couple_id columns.
// A paired filter also matches rows either member wrote before pairing
// (couple_id = X OR user_id IN members), so those become visible to both.
func Owned(filter domain.OwnershipFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.CoupleID != nil {
			if len(filter.UserIDs) == 0 {
				return db.Where("couple_id = ?", *filter.CoupleID)
			}
			return db.Where("(couple_id = ? OR user_id IN ?)", *filter.CoupleID, filter.UserIDs)
		}
		if len(filter.UserIDs) == 0 {
			// An empty filter matches nothing.
			return db.Where("1 = 0")
		}
		return db.Where("user_id IN ?", filter.UserIDs)
	}
}
