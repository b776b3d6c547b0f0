package domain

import (
	"MedSchedulePlatform/pkg/errors"
)

// Ошибки подсистемы доверия и доступа.
// Сравниваются через errors.Is по коду.
var (
	ErrInvalidCredentials    = errors.New(errors.ErrInvalidCredentials, "invalid credentials")
	ErrAccountLocked         = errors.New(errors.ErrAccountLocked, "account is temporarily locked")
	ErrIPBlocked             = errors.New(errors.ErrIPBlocked, "ip address is blocked")
	ErrTokenInvalid          = errors.New(errors.ErrTokenInvalid, "token is invalid")
	ErrTokenExpired          = errors.New(errors.ErrTokenExpired, "token has expired")
	ErrSessionNotFound       = errors.New(errors.ErrSessionNotFound, "session not found")
	ErrAlreadyBlocked        = errors.New(errors.ErrAlreadyBlocked, "ip address is already blocked")
	ErrEncryptionKeyMismatch = errors.New(errors.ErrEncryptionKeyMismatch, "ciphertext cannot be decrypted with the configured key")
	ErrAuditLogFailure       = errors.New(errors.ErrAuditLogFailure, "failed to write audit entry")
)

// Ошибки справочников и PHI
var (
	ErrPrincipalNotFound = errors.New(errors.ErrPrincipalNotFound, "principal not found")
	ErrPatientNotFound   = errors.New(errors.ErrPatientNotFound, "patient not found")
	ErrNotBlocked        = errors.New(errors.ErrNotBlocked, "no active block for ip address")
	ErrUnauthenticated   = errors.New(errors.ErrUnauthorized, "authentication required")
	ErrForbidden         = errors.New(errors.ErrForbidden, "access denied")
	ErrValidation        = errors.New(errors.ErrValidation, "validation failed")
)
