package service

import (
	"github.com/dom/wedding-planner/internal/config"
	"github.com/dom/wedding-planner/internal/platform/logger"
	"github.com/dom/wedding-planner/internal/realtime"
	"github.com/dom/wedding-planner/internal/repository"
)

type Services struct {
	Auth      *AuthService
	Keys      *KeyIssuer
	Couples   *CoupleRegistry
	Pairing   *PairingCoordinator
	Ownership *OwnershipResolver
	Calendar  *CalendarService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, log *logger.Logger, publisher realtime.Publisher) *Services {
	keys := NewKeyIssuer(repos.User, cfg.PairingKeyLength, cfg.KeyIssueAttempts, log)
	couples := NewCoupleRegistry(repos, log)
	ownership := NewOwnershipResolver(repos.User, couples, log)

	return &Services{
		Auth:      NewAuthService(repos.User, cfg),
		Keys:      keys,
		Couples:   couples,
		Pairing:   NewPairingCoordinator(repos, keys, couples, publisher, log),
		Ownership: ownership,
		Calendar:  NewCalendarService(repos.CalendarEvent, ownership, log),
	}
}
