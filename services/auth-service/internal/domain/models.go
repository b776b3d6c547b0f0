package domain

import (
	"time"
)

// Role роль субъекта доступа
type Role string

const (
	RoleDoctor  Role = "DOCTOR"
	RolePatient Role = "PATIENT"
	RoleAdmin   Role = "ADMIN"
)

// UserType справочник, в котором найден субъект
type UserType string

const (
	UserTypeDoctor  UserType = "DOCTOR"
	UserTypePatient UserType = "PATIENT"
)

// SystemActor актор аудита для вызовов вне запроса
const SystemActor = "SYSTEM"

// Session представляет сессию пользователя.
// Сессии не удаляются, а деактивируются (active=false).
type Session struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	UserType     UserType  `json:"user_type"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	LoginTime    time.Time `json:"login_time"`
	LastActivity time.Time `json:"last_activity"`
	Active       bool      `json:"active"`
}

// LoginAttempt попытка входа. Журнал только дополняется.
type LoginAttempt struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	IPAddress   string    `json:"ip_address"`
	Successful  bool      `json:"successful"`
	AttemptedAt time.Time `json:"attempted_at"`
	UserAgent   string    `json:"user_agent"`
}

// BlockedIP блокировка IP адреса.
// Активная блокировка действует до деактивации фоновой очисткой, даже если ExpiresAt уже прошел.
type BlockedIP struct {
	ID        string    `json:"id"`
	IPAddress string    `json:"ip_address"`
	Reason    string    `json:"reason"`
	BlockedAt time.Time `json:"blocked_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
}

// AuditAction тип доступа к PHI
type AuditAction string

const (
	AuditReadPHI  AuditAction = "READ_PHI"
	AuditWritePHI AuditAction = "WRITE_PHI"
)

// AuditEntry запись журнала доступа к PHI. Журнал только дополняется.
type AuditEntry struct {
	ID         string      `json:"id"`
	Actor      string      `json:"actor"`
	Action     AuditAction `json:"action"`
	EntityType string      `json:"entity_type"`
	EntityID   string      `json:"entity_id"`
	Detail     string      `json:"detail"`
	IPAddress  string      `json:"ip_address"`
	CreatedAt  time.Time   `json:"created_at"`
}

// RefreshToken запись refresh токена. Хранится только хеш токена.
type RefreshToken struct {
	TokenHash string    `json:"token_hash"`
	Username  string    `json:"username"`
	UserType  UserType  `json:"user_type"`
	SessionID string    `json:"session_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PatientRecord карточка пациента. Phone, Address и DateOfBirth шифруются при сохранении.
type PatientRecord struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	FullName    string    `json:"full_name"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	DateOfBirth string    `json:"date_of_birth"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AuditID идентификатор записи для журнала аудита
func (p *PatientRecord) AuditID() string {
	return p.ID
}

// String не раскрывает PHI
func (p *PatientRecord) String() string {
	return "PatientRecord{id=" + p.ID + "}"
}

// MedicalHistoryEntry запись истории болезни. Diagnosis, Treatment и Notes шифруются при сохранении.
type MedicalHistoryEntry struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patient_id"`
	Diagnosis  string    `json:"diagnosis"`
	Treatment  string    `json:"treatment"`
	Notes      *string   `json:"notes,omitempty"`
	RecordedBy string    `json:"recorded_by"`
	RecordedAt time.Time `json:"recorded_at"`
}

// AuditID идентификатор записи для журнала аудита
func (m *MedicalHistoryEntry) AuditID() string {
	return m.PatientID
}

// String не раскрывает PHI
func (m *MedicalHistoryEntry) String() string {
	return "MedicalHistoryEntry{id=" + m.ID + ", patient=" + m.PatientID + "}"
}

// SecurityEventType тип события безопасности
type SecurityEventType string

const (
	EventIPBlocked     SecurityEventType = "ip_blocked"
	EventIPUnblocked   SecurityEventType = "ip_unblocked"
	EventAccountLocked SecurityEventType = "account_locked"
)

// SecurityEvent событие безопасности для внешних подписчиков
type SecurityEvent struct {
	Type       SecurityEventType `json:"type"`
	IPAddress  string            `json:"ip_address,omitempty"`
	Username   string            `json:"username,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
