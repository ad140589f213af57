package catalog

import "errors"

var (
	ErrInvalidPattern   = errors.New("invalid recurring pattern")
	ErrInvalidSession   = errors.New("invalid session")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionReserved  = errors.New("session has an active reservation")
	ErrDuplicateSession = errors.New("session already exists")
	ErrConfirmation     = errors.New("confirmation phrase mismatch")
)
