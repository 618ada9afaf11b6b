package domain

import "errors"

type ErrorKind string

const (
	ErrorKindNotFound   ErrorKind = "not_found"
	ErrorKindBadRequest ErrorKind = "bad_request"
	ErrorKindConflict   ErrorKind = "conflict"
)

// PairingError carries a stable machine-readable code next to the message.
type PairingError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *PairingError) Error() string {
	return e.Message
}

// Is matches on code so copies of a sentinel still compare equal.
func (e *PairingError) Is(target error) bool {
	t, ok := target.(*PairingError)
	return ok && t.Code == e.Code
}

// Pairing errors
var (
	ErrUserNotFound = &PairingError{Kind: ErrorKindNotFound, Code: "USER_NOT_FOUND", Message: "user not found"}
	ErrInvalidKey   = &PairingError{Kind: ErrorKindNotFound, Code: "INVALID_KEY", Message: "no partner found for this couple key"}

	ErrGenderNotSet    = &PairingError{Kind: ErrorKindBadRequest, Code: "GENDER_NOT_SET", Message: "select a gender before pairing"}
	ErrKeyNotGenerated = &PairingError{Kind: ErrorKindBadRequest, Code: "KEY_NOT_GENERATED", Message: "couple key has not been generated yet"}
	ErrMalformedKey    = &PairingError{Kind: ErrorKindBadRequest, Code: "MALFORMED_KEY", Message: "couple key is malformed"}
	ErrSelfConnect     = &PairingError{Kind: ErrorKindBadRequest, Code: "SELF_CONNECT", Message: "cannot connect with your own couple key"}
	ErrSameGender      = &PairingError{Kind: ErrorKindBadRequest, Code: "SAME_GENDER", Message: "partner must have the other gender"}
	ErrInvalidGender   = &PairingError{Kind: ErrorKindBadRequest, Code: "INVALID_GENDER", Message: "gender must be GROOM or BRIDE"}

	ErrAlreadyConnected        = &PairingError{Kind: ErrorKindConflict, Code: "ALREADY_CONNECTED", Message: "already connected to a partner"}
	ErrPartnerAlreadyConnected = &PairingError{Kind: ErrorKindConflict, Code: "PARTNER_ALREADY_CONNECTED", Message: "partner is already connected to someone else"}
	ErrGenderLocked            = &PairingError{Kind: ErrorKindConflict, Code: "GENDER_LOCKED", Message: "gender cannot change after the couple key is issued"}
)

// Ownership errors
var (
	ErrUnknownEntityType = errors.New("entity type is not registered for ownership")
)

// Calendar validation errors
var (
	ErrEventTitleRequired = errors.New("event title is required")
	ErrEventInvalidRange  = errors.New("event must end after it starts")
)
