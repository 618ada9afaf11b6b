package domain

import "time"

type CoupleStatus string

const (
	CoupleStatusPending   CoupleStatus = "PENDING"
	CoupleStatusConnected CoupleStatus = "CONNECTED"
)

// Couple is the persisted relationship entity. Every user who has a pairing
// key owns exactly one row (User1ID); the row of the partner who was entered
// first becomes the canonical couple once both sides have confirmed.
type Couple struct {
	ID              uint64       `json:"id" gorm:"primaryKey;autoIncrement"`
	InitiatorKey    string       `json:"initiatorKey" gorm:"not null"`
	User1ID         uint64       `json:"user1Id" gorm:"not null;uniqueIndex"`
	User2ID         *uint64      `json:"user2Id"`
	User1EnteredKey *string      `json:"-"`
	User2EnteredKey *string      `json:"-"`
	Status          CoupleStatus `json:"status" gorm:"not null;default:'PENDING'"`
	ConnectedAt     *time.Time   `json:"connectedAt"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

func (c *Couple) IsConnected() bool {
	return c != nil && c.Status == CoupleStatusConnected
}

// PartnerOf returns the other member of a connected couple.
func (c *Couple) PartnerOf(userID uint64) (uint64, bool) {
	if c == nil || c.User2ID == nil {
		return 0, false
	}
	switch userID {
	case c.User1ID:
		return *c.User2ID, true
	case *c.User2ID:
		return c.User1ID, true
	}
	return 0, false
}

// MemberIDs lists user1 and, when set, user2.
func (c *Couple) MemberIDs() []uint64 {
	ids := []uint64{c.User1ID}
	if c.User2ID != nil {
		ids = append(ids, *c.User2ID)
	}
	return ids
}

type ConnectStatus string

const (
	ConnectStatusPending   ConnectStatus = "PENDING"
	ConnectStatusConnected ConnectStatus = "CONNECTED"
)

// ConnectResult is what a connect attempt reports back to the caller.
type ConnectResult struct {
	Status          ConnectStatus
	CoupleID        uint64
	PartnerID       uint64
	PartnerNickname string
	ConnectedAt     *time.Time
}
