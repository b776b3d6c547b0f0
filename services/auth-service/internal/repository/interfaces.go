package repository

import (
	"context"
	"time"

	"MedSchedulePlatform/services/auth-service/internal/domain"
)

// DoctorRepository справочник врачей
type DoctorRepository interface {
	// FindByUsername возвращает domain.ErrPrincipalNotFound, если врача нет
	FindByUsername(ctx context.Context, username string) (*domain.DoctorPrincipal, error)
}

// PatientRepository справочник пациентов
type PatientRepository interface {
	// FindByUsername возвращает domain.ErrPrincipalNotFound, если пациента нет
	FindByUsername(ctx context.Context, username string) (*domain.PatientPrincipal, error)
}

// PatientRecordRepository карточки пациентов с шифрованием PHI полей
type PatientRecordRepository interface {
	FindByID(ctx context.Context, id string) (*domain.PatientRecord, error)
	Update(ctx context.Context, record *domain.PatientRecord) error
}

// MedicalHistoryRepository история болезни с шифрованием PHI полей
type MedicalHistoryRepository interface {
	ListByPatient(ctx context.Context, patientID string) ([]*domain.MedicalHistoryEntry, error)
	Create(ctx context.Context, entry *domain.MedicalHistoryEntry) error
}

// SessionRepository интерфейс для работы с сессиями
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	// FindByID возвращает domain.ErrSessionNotFound, если сессии нет
	FindByID(ctx context.Context, id string) (*domain.Session, error)
	// UpdateLastActivity обновляет только активную сессию. false, если такой нет.
	UpdateLastActivity(ctx context.Context, id string, at time.Time) (bool, error)
	// Deactivate возвращает false, если активной сессии не было
	Deactivate(ctx context.Context, id string) (bool, error)
	DeactivateByUsername(ctx context.Context, username string) (int64, error)
	ListActiveByUsername(ctx context.Context, username string) ([]*domain.Session, error)
	// DeactivateInactiveBefore деактивирует активные сессии с last_activity < cutoff
	DeactivateInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// LoginAttemptRepository журнал попыток входа
type LoginAttemptRepository interface {
	Create(ctx context.Context, attempt *domain.LoginAttempt) error
	CountFailuresByUsernameSince(ctx context.Context, username string, since time.Time) (int, error)
	CountFailuresByIPSince(ctx context.Context, ip string, since time.Time) (int, error)
	ListRecentByUsername(ctx context.Context, username string, limit int) ([]*domain.LoginAttempt, error)
}

// BlockedIPRepository блокировки IP адресов
type BlockedIPRepository interface {
	// Create вставляет блокировку, если активной для этого IP еще нет.
	// inserted=false означает, что активная блокировка уже существовала.
	Create(ctx context.Context, block *domain.BlockedIP) (inserted bool, err error)
	ExistsActive(ctx context.Context, ip string) (bool, error)
	DeactivateByIP(ctx context.Context, ip string) (int64, error)
	DeactivateAll(ctx context.Context) (int64, error)
	// DeactivateExpired деактивирует активные блокировки с expires_at < now
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
	ListActive(ctx context.Context) ([]*domain.BlockedIP, error)
}

// AuditRepository журнал доступа к PHI
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
}

// RefreshTokenRepository хранилище refresh токенов (по хешу)
type RefreshTokenRepository interface {
	Save(ctx context.Context, token *domain.RefreshToken) error
	// Consume атомарно читает и удаляет запись. domain.ErrTokenInvalid, если записи нет.
	Consume(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	Delete(ctx context.Context, tokenHash string) error
}
