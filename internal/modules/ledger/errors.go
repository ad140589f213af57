package ledger

import "errors"

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidPackage      = errors.New("invalid package")
	ErrGrantTooSmall       = errors.New("grant below minimum amount")
	ErrInvalidRole         = errors.New("invalid role")
)
