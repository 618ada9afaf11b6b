package domain

import (
	"time"

	"gorm.io/datatypes"
)

// CalendarEvent is a wedding-planning calendar entry. CoupleID is stamped at
// creation when the creator is paired so the partner sees it too.
type CalendarEvent struct {
	ID        uint64         `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    uint64         `json:"userId" gorm:"not null;index"`
	CoupleID  *uint64        `json:"coupleId" gorm:"index"`
	Title     string         `json:"title" gorm:"not null"`
	StartsAt  time.Time      `json:"startsAt" gorm:"not null"`
	EndsAt    *time.Time     `json:"endsAt"`
	Details   datatypes.JSON `json:"details" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
