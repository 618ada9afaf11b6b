package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dom/wedding-planner/internal/api/middleware"
	"github.com/dom/wedding-planner/internal/domain"
	"github.com/dom/wedding-planner/internal/platform/logger"
	"github.com/dom/wedding-planner/internal/service"
)

type CoupleHandler struct {
	pairing   *service.PairingCoordinator
	couples   *service.CoupleRegistry
	ownership *service.OwnershipResolver
	log       *logger.Logger
}

func NewCoupleHandler(pairing *service.PairingCoordinator, couples *service.CoupleRegistry, ownership *service.OwnershipResolver, log *logger.Logger) *CoupleHandler {
	return &CoupleHandler{
		pairing:   pairing,
		couples:   couples,
		ownership: ownership,
		log:       log.With("component", "handlers.Couple"),
	}
}

type KeyStatusResponse struct {
	CoupleKey   *string        `json:"couple_key"`
	Gender      *domain.Gender `json:"gender"`
	IsConnected bool           `json:"is_connected"`
}

type SelectGenderRequest struct {
	Gender string `json:"gender"`
}

type ConnectRequest struct {
	PartnerCoupleKey string `json:"partner_couple_key"`
}

type ConnectedResponse struct {
	Status          domain.ConnectStatus `json:"status"`
	CoupleID        uint64               `json:"couple_id"`
	PartnerID       uint64               `json:"partner_id"`
	PartnerNickname string               `json:"partner_nickname"`
	ConnectedAt     time.Time            `json:"connected_at"`
}

type PendingResponse struct {
	Status            domain.ConnectStatus `json:"status"`
	WaitingForPartner bool                 `json:"waiting_for_partner"`
}

type PartnerProfile struct {
	ID       uint64         `json:"id"`
	Nickname string         `json:"nickname"`
	Gender   *domain.Gender `json:"gender"`
}

type CoupleInfoResponse struct {
	IsConnected bool            `json:"is_connected"`
	CoupleID    *uint64         `json:"couple_id,omitempty"`
	ConnectedAt *time.Time      `json:"connected_at,omitempty"`
	Partner     *PartnerProfile `json:"partner,omitempty"`
}

type ScopeResponse struct {
	Kind      domain.ScopeKind `json:"kind"`
	ID        uint64           `json:"id"`
	MemberIDs []uint64         `json:"member_ids"`
}

func (h *CoupleHandler) MyKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	status, err := h.pairing.MyKey(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, "couple.MyKey", err)
		return
	}

	writeJSON(w, http.StatusOK, KeyStatusResponse{
		CoupleKey:   status.Key,
		Gender:      status.Gender,
		IsConnected: status.Connected,
	})
}

func (h *CoupleHandler) SelectGender(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req SelectGenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	status, err := h.pairing.SelectGender(r.Context(), userID, req.Gender)
	if err != nil {
		writeError(w, h.log, "couple.SelectGender", err)
		return
	}

	writeJSON(w, http.StatusOK, KeyStatusResponse{
		CoupleKey:   status.Key,
		Gender:      status.Gender,
		IsConnected: status.Connected,
	})
}

func (h *CoupleHandler) Connect(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	result, err := h.pairing.Connect(r.Context(), userID, req.PartnerCoupleKey)
	if err != nil {
		writeError(w, h.log, "couple.Connect", err)
		return
	}

	if result.Status == domain.ConnectStatusPending {
		writeJSON(w, http.StatusOK, PendingResponse{
			Status:            result.Status,
			WaitingForPartner: true,
		})
		return
	}

	writeJSON(w, http.StatusOK, ConnectedResponse{
		Status:          result.Status,
		CoupleID:        result.CoupleID,
		PartnerID:       result.PartnerID,
		PartnerNickname: result.PartnerNickname,
		ConnectedAt:     *result.ConnectedAt,
	})
}

func (h *CoupleHandler) Info(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	info, err := h.couples.Info(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, "couple.Info", err)
		return
	}

	resp := CoupleInfoResponse{IsConnected: info.Connected}
	if info.Connected {
		coupleID := info.CoupleID
		resp.CoupleID = &coupleID
		resp.ConnectedAt = info.ConnectedAt
	}
	if info.Partner != nil {
		resp.Partner = &PartnerProfile{
			ID:       info.Partner.ID,
			Nickname: info.Partner.DisplayName,
			Gender:   info.Partner.Gender,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CoupleHandler) Scope(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	scope, err := h.ownership.ScopeFor(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, "couple.Scope", err)
		return
	}

	writeJSON(w, http.StatusOK, ScopeResponse{
		Kind:      scope.Kind,
		ID:        scope.ID,
		MemberIDs: scope.MemberIDs,
	})
}
