package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dom/wedding-planner/internal/config"
	"github.com/dom/wedding-planner/internal/domain"
	"github.com/dom/wedding-planner/internal/service"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	displayName string
	gender      *domain.Gender
	key         *string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		displayName: fmt.Sprintf("testuser_%s", uuid.New().String()[:8]),
	}
}

// WithDisplayName sets the display name
func (b *UserBuilder) WithDisplayName(name string) *UserBuilder {
	b.displayName = name
	return b
}

func (b *UserBuilder) WithGender(gender domain.Gender) *UserBuilder {
	b.gender = &gender
	return b
}

// WithKey stores a fixed couple key and, like real issuance, the user's
// PENDING couple row.
func (b *UserBuilder) WithKey(key string) *UserBuilder {
	b.key = &key
	return b
}

// Groom and Bride are shortcuts for a user ready to pair.
func (b *UserBuilder) Groom(key string) *UserBuilder {
	return b.WithGender(domain.GenderGroom).WithKey(key)
}

func (b *UserBuilder) Bride(key string) *UserBuilder {
	return b.WithGender(domain.GenderBride).WithKey(key)
}

// Build creates the user in the database
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) *domain.User {
	t.Helper()

	user := &domain.User{
		DisplayName: b.displayName,
		Gender:      b.gender,
		OwnKey:      b.key,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := db.Omit("EnteredPartnerKey").Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	if b.key != nil {
		couple := &domain.Couple{
			InitiatorKey: *b.key,
			User1ID:      user.ID,
			Status:       domain.CoupleStatusPending,
		}
		if err := db.Omit("User1EnteredKey", "User2EnteredKey").Create(couple).Error; err != nil {
			t.Fatalf("failed to create owned couple: %v", err)
		}
	}

	return user
}

// BuildAndAuthenticate creates the user and returns an access token for it.
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	user := b.Build(t, ts.DB.DB)
	return user, AccessToken(t, ts.Config, user)
}

// AccessToken signs a token for user with the test secret.
func AccessToken(t *testing.T, cfg *config.Config, user *domain.User) string {
	t.Helper()

	token, err := service.NewAuthService(nil, cfg).IssueAccessToken(user)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

// DoJSON sends body as JSON with a bearer token and returns the response.
func DoJSON(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// ReloadUser reads the user row back from the database.
func ReloadUser(t *testing.T, db *gorm.DB, id uint64) *domain.User {
	t.Helper()

	var user domain.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to reload user %d: %v", id, err)
	}
	return &user
}

// OwnedCouple reads the couple row a user owns as user1.
func OwnedCouple(t *testing.T, db *gorm.DB, userID uint64) *domain.Couple {
	t.Helper()

	var couple domain.Couple
	if err := db.First(&couple, "user1_id = ?", userID).Error; err != nil {
		t.Fatalf("failed to load couple owned by %d: %v", userID, err)
	}
	return &couple
}

// CountCouples returns the number of couple rows.
func CountCouples(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	if err := db.Model(&domain.Couple{}).Count(&n).Error; err != nil {
		t.Fatalf("failed to count couples: %v", err)
	}
	return n
}
