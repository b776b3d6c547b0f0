// Package mocks содержит testify моки репозиториев auth-service.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"MedSchedulePlatform/services/auth-service/internal/domain"
)

// MockSessionRepository мок для SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) UpdateLastActivity(ctx context.Context, id string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepository) Deactivate(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionRepository) DeactivateByUsername(ctx context.Context, username string) (int64, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionRepository) ListActiveByUsername(ctx context.Context, username string) ([]*domain.Session, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) DeactivateInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockLoginAttemptRepository мок для LoginAttemptRepository
type MockLoginAttemptRepository struct {
	mock.Mock
}

func (m *MockLoginAttemptRepository) Create(ctx context.Context, attempt *domain.LoginAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockLoginAttemptRepository) CountFailuresByUsernameSince(ctx context.Context, username string, since time.Time) (int, error) {
	args := m.Called(ctx, username, since)
	return args.Int(0), args.Error(1)
}

func (m *MockLoginAttemptRepository) CountFailuresByIPSince(ctx context.Context, ip string, since time.Time) (int, error) {
	args := m.Called(ctx, ip, since)
	return args.Int(0), args.Error(1)
}

func (m *MockLoginAttemptRepository) ListRecentByUsername(ctx context.Context, username string, limit int) ([]*domain.LoginAttempt, error) {
	args := m.Called(ctx, username, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.LoginAttempt), args.Error(1)
}

// MockBlockedIPRepository мок для BlockedIPRepository
type MockBlockedIPRepository struct {
	mock.Mock
}

func (m *MockBlockedIPRepository) Create(ctx context.Context, block *domain.BlockedIP) (bool, error) {
	args := m.Called(ctx, block)
	return args.Bool(0), args.Error(1)
}

func (m *MockBlockedIPRepository) ExistsActive(ctx context.Context, ip string) (bool, error) {
	args := m.Called(ctx, ip)
	return args.Bool(0), args.Error(1)
}

func (m *MockBlockedIPRepository) DeactivateByIP(ctx context.Context, ip string) (int64, error) {
	args := m.Called(ctx, ip)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBlockedIPRepository) DeactivateAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBlockedIPRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBlockedIPRepository) ListActive(ctx context.Context) ([]*domain.BlockedIP, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.BlockedIP), args.Error(1)
}

// MockAuditRepository мок для AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockDoctorRepository мок для DoctorRepository
type MockDoctorRepository struct {
	mock.Mock
}

func (m *MockDoctorRepository) FindByUsername(ctx context.Context, username string) (*domain.DoctorPrincipal, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DoctorPrincipal), args.Error(1)
}

// MockPatientRepository мок для PatientRepository
type MockPatientRepository struct {
	mock.Mock
}

func (m *MockPatientRepository) FindByUsername(ctx context.Context, username string) (*domain.PatientPrincipal, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PatientPrincipal), args.Error(1)
}

// MockPatientRecordRepository мок для PatientRecordRepository
type MockPatientRecordRepository struct {
	mock.Mock
}

func (m *MockPatientRecordRepository) FindByID(ctx context.Context, id string) (*domain.PatientRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PatientRecord), args.Error(1)
}

func (m *MockPatientRecordRepository) Update(ctx context.Context, record *domain.PatientRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// MockMedicalHistoryRepository мок для MedicalHistoryRepository
type MockMedicalHistoryRepository struct {
	mock.Mock
}

func (m *MockMedicalHistoryRepository) ListByPatient(ctx context.Context, patientID string) ([]*domain.MedicalHistoryEntry, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MedicalHistoryEntry), args.Error(1)
}

func (m *MockMedicalHistoryRepository) Create(ctx context.Context, entry *domain.MedicalHistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockEventPublisher мок для SecurityEventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event domain.SecurityEvent) {
	m.Called(ctx, event)
}
