// Package memory хранит данные подсистемы безопасности в памяти процесса.
// Используется в тестах и при локальном запуске без базы данных.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/repository"
)

// SessionRepository сессии в памяти
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewSessionRepository создает пустое хранилище сессий
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*domain.Session)}
}

var _ repository.SessionRepository = (*SessionRepository)(nil)

func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *session
	r.sessions[session.ID] = &stored
	return nil
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	found := *session
	return &found, nil
}

func (r *SessionRepository) UpdateLastActivity(ctx context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok || !session.Active {
		return false, nil
	}
	if at.After(session.LastActivity) {
		session.LastActivity = at
	}
	return true, nil
}

func (r *SessionRepository) Deactivate(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok || !session.Active {
		return false, nil
	}
	session.Active = false
	return true, nil
}

func (r *SessionRepository) DeactivateByUsername(ctx context.Context, username string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, session := range r.sessions {
		if session.Active && session.Username == username {
			session.Active = false
			n++
		}
	}
	return n, nil
}

func (r *SessionRepository) ListActiveByUsername(ctx context.Context, username string) ([]*domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domain.Session, 0)
	for _, session := range r.sessions {
		if session.Active && session.Username == username {
			found := *session
			result = append(result, &found)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].LoginTime.After(result[j].LoginTime) })
	return result, nil
}

func (r *SessionRepository) DeactivateInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, session := range r.sessions {
		if session.Active && session.LastActivity.Before(cutoff) {
			session.Active = false
			n++
		}
	}
	return n, nil
}

// LoginAttemptRepository журнал попыток входа в памяти
type LoginAttemptRepository struct {
	mu       sync.RWMutex
	attempts []domain.LoginAttempt
}

// NewLoginAttemptRepository создает пустой журнал
func NewLoginAttemptRepository() *LoginAttemptRepository {
	return &LoginAttemptRepository{}
}

var _ repository.LoginAttemptRepository = (*LoginAttemptRepository)(nil)

func (r *LoginAttemptRepository) Create(ctx context.Context, attempt *domain.LoginAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, *attempt)
	return nil
}

func (r *LoginAttemptRepository) CountFailuresByUsernameSince(ctx context.Context, username string, since time.Time) (int, error) {
	return r.countFailures(func(a domain.LoginAttempt) bool { return a.Username == username }, since), nil
}

func (r *LoginAttemptRepository) CountFailuresByIPSince(ctx context.Context, ip string, since time.Time) (int, error) {
	return r.countFailures(func(a domain.LoginAttempt) bool { return a.IPAddress == ip }, since), nil
}

func (r *LoginAttemptRepository) countFailures(match func(domain.LoginAttempt) bool, since time.Time) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, attempt := range r.attempts {
		if !attempt.Successful && match(attempt) && !attempt.AttemptedAt.Before(since) {
			n++
		}
	}
	return n
}

func (r *LoginAttemptRepository) ListRecentByUsername(ctx context.Context, username string, limit int) ([]*domain.LoginAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domain.LoginAttempt, 0)
	for i := len(r.attempts) - 1; i >= 0 && len(result) < limit; i-- {
		if r.attempts[i].Username == username {
			attempt := r.attempts[i]
			result = append(result, &attempt)
		}
	}
	return result, nil
}

// BlockedIPRepository блокировки в памяти.
// Как и в postgres, активной может быть только одна строка на IP.
type BlockedIPRepository struct {
	mu     sync.RWMutex
	blocks []*domain.BlockedIP
}

// NewBlockedIPRepository создает пустое хранилище блокировок
func NewBlockedIPRepository() *BlockedIPRepository {
	return &BlockedIPRepository{}
}

var _ repository.BlockedIPRepository = (*BlockedIPRepository)(nil)

func (r *BlockedIPRepository) Create(ctx context.Context, block *domain.BlockedIP) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if block.Active {
		for _, existing := range r.blocks {
			if existing.Active && existing.IPAddress == block.IPAddress {
				return false, nil
			}
		}
	}
	stored := *block
	r.blocks = append(r.blocks, &stored)
	return true, nil
}

func (r *BlockedIPRepository) ExistsActive(ctx context.Context, ip string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, block := range r.blocks {
		if block.Active && block.IPAddress == ip {
			return true, nil
		}
	}
	return false, nil
}

func (r *BlockedIPRepository) DeactivateByIP(ctx context.Context, ip string) (int64, error) {
	return r.deactivate(func(b *domain.BlockedIP) bool { return b.IPAddress == ip }), nil
}

func (r *BlockedIPRepository) DeactivateAll(ctx context.Context) (int64, error) {
	return r.deactivate(func(*domain.BlockedIP) bool { return true }), nil
}

func (r *BlockedIPRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.deactivate(func(b *domain.BlockedIP) bool { return b.ExpiresAt.Before(now) }), nil
}

func (r *BlockedIPRepository) deactivate(match func(*domain.BlockedIP) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, block := range r.blocks {
		if block.Active && match(block) {
			block.Active = false
			n++
		}
	}
	return n
}

func (r *BlockedIPRepository) ListActive(ctx context.Context) ([]*domain.BlockedIP, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*domain.BlockedIP, 0)
	for i := len(r.blocks) - 1; i >= 0; i-- {
		if r.blocks[i].Active {
			block := *r.blocks[i]
			result = append(result, &block)
		}
	}
	return result, nil
}

// AuditRepository журнал аудита в памяти
type AuditRepository struct {
	mu      sync.RWMutex
	entries []domain.AuditEntry
}

// NewAuditRepository создает пустой журнал аудита
func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

var _ repository.AuditRepository = (*AuditRepository)(nil)

func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

// Entries возвращает копию журнала
func (r *AuditRepository) Entries() []domain.AuditEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.AuditEntry(nil), r.entries...)
}

// RefreshTokenRepository refresh токены в памяти. Истекшие записи не возвращаются.
type RefreshTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]domain.RefreshToken
	now    func() time.Time
}

// NewRefreshTokenRepository создает пустое хранилище refresh токенов
func NewRefreshTokenRepository(now func() time.Time) *RefreshTokenRepository {
	if now == nil {
		now = time.Now
	}
	return &RefreshTokenRepository{tokens: make(map[string]domain.RefreshToken), now: now}
}

var _ repository.RefreshTokenRepository = (*RefreshTokenRepository)(nil)

func (r *RefreshTokenRepository) Save(ctx context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token.TokenHash] = *token
	return nil
}

func (r *RefreshTokenRepository) Consume(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenHash]
	if !ok {
		return nil, domain.ErrTokenInvalid
	}
	delete(r.tokens, tokenHash)
	if !r.now().Before(token.ExpiresAt) {
		return nil, domain.ErrTokenInvalid
	}
	return &token, nil
}

func (r *RefreshTokenRepository) Delete(ctx context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, tokenHash)
	return nil
}

// Directory справочники врачей и пациентов в памяти
type Directory struct {
	mu       sync.RWMutex
	doctors  map[string]*domain.DoctorPrincipal
	patients map[string]*domain.PatientPrincipal
}

// NewDirectory создает пустые справочники
func NewDirectory() *Directory {
	return &Directory{
		doctors:  make(map[string]*domain.DoctorPrincipal),
		patients: make(map[string]*domain.PatientPrincipal),
	}
}

// AddDoctor добавляет врача
func (d *Directory) AddDoctor(doctor *domain.DoctorPrincipal) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doctors[doctor.Username] = doctor
}

// AddPatient добавляет пациента
func (d *Directory) AddPatient(patient *domain.PatientPrincipal) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.patients[patient.Username] = patient
}

// Doctors справочник врачей
func (d *Directory) Doctors() repository.DoctorRepository {
	return doctorView{d}
}

// Patients справочник пациентов
func (d *Directory) Patients() repository.PatientRepository {
	return patientView{d}
}

type doctorView struct{ d *Directory }

func (v doctorView) FindByUsername(ctx context.Context, username string) (*domain.DoctorPrincipal, error) {
	v.d.mu.RLock()
	defer v.d.mu.RUnlock()
	doctor, ok := v.d.doctors[username]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	return doctor, nil
}

type patientView struct{ d *Directory }

func (v patientView) FindByUsername(ctx context.Context, username string) (*domain.PatientPrincipal, error) {
	v.d.mu.RLock()
	defer v.d.mu.RUnlock()
	patient, ok := v.d.patients[username]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	return patient, nil
}
