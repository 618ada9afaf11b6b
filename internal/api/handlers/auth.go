package handlers

import (
	"net/http"

	"github.com/dom/wedding-planner/internal/api/middleware"
	"github.com/dom/wedding-planner/internal/domain"
	"github.com/dom/wedding-planner/internal/platform/logger"
	"github.com/dom/wedding-planner/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	log         *logger.Logger
}

func NewAuthHandler(authService *service.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log.With("component", "handlers.Auth")}
}

type UserResponse struct {
	ID          uint64         `json:"id"`
	DisplayName string         `json:"displayName"`
	Gender      *domain.Gender `json:"gender"`
	CoupleID    *uint64        `json:"coupleId"`
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, "auth.Me", err)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Gender:      user.Gender,
		CoupleID:    user.CoupleID,
	})
}
