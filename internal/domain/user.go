package domain

import (
	"strings"
	"time"
)

type Gender string

const (
	GenderGroom Gender = "GROOM"
	GenderBride Gender = "BRIDE"
)

func (g Gender) IsValid() bool {
	return g == GenderGroom || g == GenderBride
}

// ParseGender accepts either case and rejects anything but the two roles.
func ParseGender(s string) (Gender, bool) {
	g := Gender(strings.ToUpper(strings.TrimSpace(s)))
	return g, g.IsValid()
}

type User struct {
	ID                uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	DisplayName       string    `json:"displayName" gorm:"not null"`
	Gender            *Gender   `json:"gender"`
	OwnKey            *string   `json:"ownKey" gorm:"uniqueIndex"`
	EnteredPartnerKey *string   `json:"-"`
	CoupleID          *uint64   `json:"coupleId"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (u *User) HasGender() bool {
	return u.Gender != nil && u.Gender.IsValid()
}

func (u *User) HasKey() bool {
	return u.OwnKey != nil && *u.OwnKey != ""
}
