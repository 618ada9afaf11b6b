package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventCoupleConnected EventType = "COUPLE_CONNECTED"
	EventError           EventType = "ERROR"
)

// Event is addressed to a single user; the hub fans it out to every socket
// that user has open.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      EventType       `json:"type"`
	UserID    uint64          `json:"userId"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewEvent(eventType EventType, userID uint64, payload interface{}) (Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		UserID:    userID,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

type CoupleConnectedPayload struct {
	CoupleID        uint64    `json:"coupleId"`
	PartnerID       uint64    `json:"partnerId"`
	PartnerNickname string    `json:"partnerNickname"`
	ConnectedAt     time.Time `json:"connectedAt"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}
