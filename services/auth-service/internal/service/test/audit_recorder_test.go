package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"MedSchedulePlatform/pkg/logger"
	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/mocks"
	"MedSchedulePlatform/services/auth-service/internal/pkg/clientip"
	"MedSchedulePlatform/services/auth-service/internal/repository/memory"
	"MedSchedulePlatform/services/auth-service/internal/service"
)

type MockPatientRecordService struct {
	mock.Mock
}

func (m *MockPatientRecordService) GetPatient(ctx context.Context, id string) (*domain.PatientRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PatientRecord), args.Error(1)
}

func (m *MockPatientRecordService) UpdatePatient(ctx context.Context, record *domain.PatientRecord) (*domain.PatientRecord, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PatientRecord), args.Error(1)
}

type MockMedicalHistoryService struct {
	mock.Mock
}

func (m *MockMedicalHistoryService) ListHistory(ctx context.Context, patientID string) ([]*domain.MedicalHistoryEntry, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MedicalHistoryEntry), args.Error(1)
}

func (m *MockMedicalHistoryService) AddEntry(ctx context.Context, entry *domain.MedicalHistoryEntry) (*domain.MedicalHistoryEntry, error) {
	args := m.Called(ctx, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MedicalHistoryEntry), args.Error(1)
}

func requestContext(username string, role domain.Role, ip string) context.Context {
	ctx := service.WithIdentity(context.Background(), domain.Identity{Username: username, Role: role})
	return clientip.WithIP(ctx, ip)
}

func TestAuditedPatientRecords_Read(t *testing.T) {
	auditRepo := memory.NewAuditRepository()
	recorder := service.NewAuditRecorder(auditRepo, nil, logger.NewNop())

	next := new(MockPatientRecordService)
	record := &domain.PatientRecord{ID: "p-1", FullName: "Bob", Phone: "+7 900 000 00 00"}
	next.On("GetPatient", mock.Anything, "p-1").Return(record, nil)

	svc := service.NewAuditedPatientRecords(next, recorder)
	got, err := svc.GetPatient(requestContext("house", domain.RoleDoctor, "10.0.0.9"), "p-1")
	require.NoError(t, err)
	assert.Same(t, record, got)

	entries := auditRepo.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "house", entries[0].Actor)
	assert.Equal(t, domain.AuditReadPHI, entries[0].Action)
	assert.Equal(t, "PatientRecord", entries[0].EntityType)
	assert.Equal(t, "p-1", entries[0].EntityID)
	assert.Equal(t, "GetPatient(p-1)", entries[0].Detail)
	assert.Equal(t, "10.0.0.9", entries[0].IPAddress)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

// Детали аудита не содержат PHI записи
func TestAuditedPatientRecords_WriteWithoutContext(t *testing.T) {
	auditRepo := memory.NewAuditRepository()
	recorder := service.NewAuditRecorder(auditRepo, nil, logger.NewNop())

	next := new(MockPatientRecordService)
	record := &domain.PatientRecord{ID: "p-1", FullName: "Bob", Phone: "+7 900 000 00 00"}
	next.On("UpdatePatient", mock.Anything, record).Return(record, nil)

	svc := service.NewAuditedPatientRecords(next, recorder)
	_, err := svc.UpdatePatient(context.Background(), record)
	require.NoError(t, err)

	entries := auditRepo.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.SystemActor, entries[0].Actor)
	assert.Equal(t, domain.AuditWritePHI, entries[0].Action)
	assert.Equal(t, "p-1", entries[0].EntityID)
	assert.Equal(t, "UpdatePatient(PatientRecord{id=p-1})", entries[0].Detail)
	assert.NotContains(t, entries[0].Detail, "900")
	assert.Empty(t, entries[0].IPAddress)
}

func TestAuditedPatientRecords_FailedCallNotAudited(t *testing.T) {
	auditRepo := new(mocks.MockAuditRepository)
	recorder := service.NewAuditRecorder(auditRepo, nil, logger.NewNop())

	next := new(MockPatientRecordService)
	next.On("GetPatient", mock.Anything, "missing").Return(nil, domain.ErrPatientNotFound)

	svc := service.NewAuditedPatientRecords(next, recorder)
	_, err := svc.GetPatient(context.Background(), "missing")

	assert.True(t, errors.Is(err, domain.ErrPatientNotFound))
	auditRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// Ошибка журнала не ломает основную операцию
func TestAuditedMedicalHistory_AuditFailureSwallowed(t *testing.T) {
	auditRepo := new(mocks.MockAuditRepository)
	auditRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.AuditEntry")).Return(errors.New("audit table locked"))
	recorder := service.NewAuditRecorder(auditRepo, nil, logger.NewNop())

	entries := []*domain.MedicalHistoryEntry{{ID: "h-1", PatientID: "p-1", Diagnosis: "flu"}}
	next := new(MockMedicalHistoryService)
	next.On("ListHistory", mock.Anything, "p-1").Return(entries, nil)

	svc := service.NewAuditedMedicalHistory(next, recorder)
	got, err := svc.ListHistory(requestContext("house", domain.RoleDoctor, "10.0.0.9"), "p-1")

	require.NoError(t, err)
	assert.Equal(t, entries, got)
	auditRepo.AssertExpectations(t)
}

func TestAuditedMedicalHistory_AddEntry(t *testing.T) {
	auditRepo := memory.NewAuditRepository()
	recorder := service.NewAuditRecorder(auditRepo, nil, logger.NewNop())

	entry := &domain.MedicalHistoryEntry{PatientID: "p-1", Diagnosis: "flu", Treatment: "rest"}
	created := &domain.MedicalHistoryEntry{ID: "h-9", PatientID: "p-1", Diagnosis: "flu", Treatment: "rest"}
	next := new(MockMedicalHistoryService)
	next.On("AddEntry", mock.Anything, entry).Return(created, nil)

	svc := service.NewAuditedMedicalHistory(next, recorder)
	_, err := svc.AddEntry(requestContext("house", domain.RoleDoctor, "10.0.0.9"), entry)
	require.NoError(t, err)

	entries := auditRepo.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditWritePHI, entries[0].Action)
	assert.Equal(t, "MedicalHistory", entries[0].EntityType)
	assert.Equal(t, "p-1", entries[0].EntityID)
	assert.Equal(t, "AddEntry(MedicalHistoryEntry{id=h-9, patient=p-1})", entries[0].Detail)
	assert.NotContains(t, entries[0].Detail, "flu")
}
