package domain

type ScopeKind string

const (
	ScopeKindUser   ScopeKind = "user"
	ScopeKindCouple ScopeKind = "couple"
)

// Scope is the unit of data visibility: a single user or a connected couple.
type Scope struct {
	Kind      ScopeKind `json:"kind"`
	ID        uint64    `json:"id"`
	MemberIDs []uint64  `json:"memberIds"`
}

func UserScope(userID uint64) Scope {
	return Scope{Kind: ScopeKindUser, ID: userID, MemberIDs: []uint64{userID}}
}

func CoupleScope(c *Couple) Scope {
	return Scope{Kind: ScopeKindCouple, ID: c.ID, MemberIDs: c.MemberIDs()}
}

func (s Scope) IsShared() bool {
	return s.Kind == ScopeKindCouple
}

// OwnershipFilter is the predicate feature modules apply to their queries.
// A record matches when it is stamped with CoupleID or was created by one of
// UserIDs. CoupleID is nil for an individual scope.
type OwnershipFilter struct {
	CoupleID *uint64
	UserIDs  []uint64
}

func (f OwnershipFilter) Matches(ownerID uint64, coupleID *uint64) bool {
	if f.CoupleID != nil && coupleID != nil && *coupleID == *f.CoupleID {
		return true
	}
	for _, id := range f.UserIDs {
		if id == ownerID {
			return true
		}
	}
	return false
}

// EntityType names a feature module's record kind for ownership decisions.
type EntityType string

const (
	EntityCalendarEvent    EntityType = "calendar_event"
	EntityBudgetItem       EntityType = "budget_item"
	EntityChatMemory       EntityType = "chat_memory"
	EntityVendorThread     EntityType = "vendor_thread"
	EntityInvitationDesign EntityType = "invitation_design"
)

type SharingPolicy string

const (
	// SharingPolicyShared records are visible to both partners once paired.
	SharingPolicyShared SharingPolicy = "shared"
	// SharingPolicyIndividual records stay with their creator even when paired.
	SharingPolicyIndividual SharingPolicy = "individual"
)
