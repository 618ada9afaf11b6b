package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dom/wedding-planner/internal/domain"
	"github.com/dom/wedding-planner/internal/platform/logger"
	"github.com/dom/wedding-planner/internal/service"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// writeJSON sets no-store since pairing keys travel in these bodies.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

// writeError maps service errors to a status and a stable code. Anything
// unrecognized is logged and reported as an internal error.
func writeError(w http.ResponseWriter, log *logger.Logger, op string, err error) {
	var pe *domain.PairingError
	switch {
	case errors.As(err, &pe):
		writeErrorCode(w, statusForKind(pe.Kind), pe.Code, pe.Message)
	case errors.Is(err, domain.ErrEventTitleRequired), errors.Is(err, domain.ErrEventInvalidRange):
		writeErrorCode(w, http.StatusBadRequest, "INVALID_EVENT", err.Error())
	case errors.Is(err, service.ErrKeySpaceExhausted):
		log.Error("couple key issuance failed", "op", op, "error", err)
		writeErrorCode(w, http.StatusServiceUnavailable, "KEY_ISSUE_FAILED", "could not issue a couple key, try again")
	default:
		log.Error("request failed", "op", op, "error", err)
		writeErrorCode(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}

func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.ErrorKindNotFound:
		return http.StatusNotFound
	case domain.ErrorKindBadRequest:
		return http.StatusBadRequest
	case domain.ErrorKindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
