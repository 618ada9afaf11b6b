package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dom/wedding-planner/internal/domain"
	"github.com/dom/wedding-planner/internal/platform/logger"
	"github.com/dom/wedding-planner/internal/repository"
	"gorm.io/datatypes"
)

// CalendarService is the first feature module on top of the ownership
// resolver: events one partner creates show up for the other.
type CalendarService struct {
	eventRepo repository.CalendarEventRepository
	resolver  *OwnershipResolver
	log       *logger.Logger
}

func NewCalendarService(eventRepo repository.CalendarEventRepository, resolver *OwnershipResolver, log *logger.Logger) *CalendarService {
	return &CalendarService{
		eventRepo: eventRepo,
		resolver:  resolver,
		log:       log.With("component", "service.CalendarService"),
	}
}

type CreateEventInput struct {
	Title    string
	StartsAt time.Time
	EndsAt   *time.Time
	Details  map[string]interface{}
}

func (s *CalendarService) Create(ctx context.Context, userID uint64, input CreateEventInput) (*domain.CalendarEvent, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.ErrEventTitleRequired
	}
	if input.EndsAt != nil && !input.EndsAt.After(input.StartsAt) {
		return nil, domain.ErrEventInvalidRange
	}

	ownerID, coupleID, err := s.resolver.StampFor(ctx, domain.EntityCalendarEvent, userID)
	if err != nil {
		return nil, err
	}

	event := &domain.CalendarEvent{
		UserID:   ownerID,
		CoupleID: coupleID,
		Title:    title,
		StartsAt: input.StartsAt.UTC(),
		EndsAt:   input.EndsAt,
	}
	if len(input.Details) > 0 {
		raw, err := json.Marshal(input.Details)
		if err != nil {
			return nil, fmt.Errorf("encode event details: %w", err)
		}
		event.Details = datatypes.JSON(raw)
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		s.log.Error("create calendar event", "user_id", userID, "error", err)
		return nil, err
	}
	return event, nil
}

// List returns the events visible to userID, optionally bounded by start time.
func (s *CalendarService) List(ctx context.Context, userID uint64, from, to *time.Time) ([]*domain.CalendarEvent, error) {
	filter, err := s.resolver.FilterFor(ctx, domain.EntityCalendarEvent, userID)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, filter, from, to)
}
