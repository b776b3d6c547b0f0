package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/service"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, req service.LoginRequest) (*service.TokenPair, error) {
	args := m.Called(ctx, req)
	if pair := args.Get(0); pair != nil {
		return pair.(*service.TokenPair), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if pair := args.Get(0); pair != nil {
		return pair.(*service.TokenPair), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	return m.Called(ctx, accessToken, refreshToken).Error(0)
}

func (m *MockAuthService) LogoutAll(ctx context.Context, username string) (int64, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(int64), args.Error(1)
}

type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) ListActive(ctx context.Context, username string) ([]*domain.Session, error) {
	args := m.Called(ctx, username)
	return args.Get(0).([]*domain.Session), args.Error(1)
}

type MockBlockService struct {
	mock.Mock
}

func (m *MockBlockService) ListActiveBlocks(ctx context.Context) ([]*domain.BlockedIP, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.BlockedIP), args.Error(1)
}

func (m *MockBlockService) BlockManually(ctx context.Context, ip, reason string, hours int) error {
	return m.Called(ctx, ip, reason, hours).Error(0)
}

func (m *MockBlockService) Unblock(ctx context.Context, ip string) error {
	return m.Called(ctx, ip).Error(0)
}

func (m *MockBlockService) UnblockAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBlockService) RecentAttempts(ctx context.Context, username string, limit int) ([]*domain.LoginAttempt, error) {
	args := m.Called(ctx, username, limit)
	return args.Get(0).([]*domain.LoginAttempt), args.Error(1)
}

type MockPatientRecordService struct {
	mock.Mock
}

func (m *MockPatientRecordService) GetPatient(ctx context.Context, id string) (*domain.PatientRecord, error) {
	args := m.Called(ctx, id)
	if record := args.Get(0); record != nil {
		return record.(*domain.PatientRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPatientRecordService) UpdatePatient(ctx context.Context, record *domain.PatientRecord) (*domain.PatientRecord, error) {
	args := m.Called(ctx, record)
	if updated := args.Get(0); updated != nil {
		return updated.(*domain.PatientRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockMedicalHistoryService struct {
	mock.Mock
}

func (m *MockMedicalHistoryService) ListHistory(ctx context.Context, patientID string) ([]*domain.MedicalHistoryEntry, error) {
	args := m.Called(ctx, patientID)
	return args.Get(0).([]*domain.MedicalHistoryEntry), args.Error(1)
}

func (m *MockMedicalHistoryService) AddEntry(ctx context.Context, entry *domain.MedicalHistoryEntry) (*domain.MedicalHistoryEntry, error) {
	args := m.Called(ctx, entry)
	if created := args.Get(0); created != nil {
		return created.(*domain.MedicalHistoryEntry), args.Error(1)
	}
	return nil, args.Error(1)
}
