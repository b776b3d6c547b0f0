package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/repository"
)

// PatientRecordService чтение и изменение карточек пациентов
type PatientRecordService interface {
	GetPatient(ctx context.Context, id string) (*domain.PatientRecord, error)
	UpdatePatient(ctx context.Context, record *domain.PatientRecord) (*domain.PatientRecord, error)
}

// MedicalHistoryService история болезни пациента
type MedicalHistoryService interface {
	ListHistory(ctx context.Context, patientID string) ([]*domain.MedicalHistoryEntry, error)
	AddEntry(ctx context.Context, entry *domain.MedicalHistoryEntry) (*domain.MedicalHistoryEntry, error)
}

type patientRecordService struct {
	repo repository.PatientRecordRepository
	now  func() time.Time
}

// NewPatientRecordService создает сервис карточек пациентов
func NewPatientRecordService(repo repository.PatientRecordRepository) PatientRecordService {
	return &patientRecordService{repo: repo, now: time.Now}
}

func (s *patientRecordService) GetPatient(ctx context.Context, id string) (*domain.PatientRecord, error) {
	if id == "" {
		return nil, domain.ErrValidation.WithDetails("patient id is required")
	}
	return s.repo.FindByID(ctx, id)
}

func (s *patientRecordService) UpdatePatient(ctx context.Context, record *domain.PatientRecord) (*domain.PatientRecord, error) {
	if record == nil || record.ID == "" {
		return nil, domain.ErrValidation.WithDetails("patient id is required")
	}
	if strings.TrimSpace(record.FullName) == "" {
		return nil, domain.ErrValidation.WithDetails("full name is required")
	}

	record.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

type medicalHistoryService struct {
	repo     repository.MedicalHistoryRepository
	patients repository.PatientRecordRepository
	now      func() time.Time
}

// NewMedicalHistoryService создает сервис истории болезни
func NewMedicalHistoryService(repo repository.MedicalHistoryRepository, patients repository.PatientRecordRepository) MedicalHistoryService {
	return &medicalHistoryService{repo: repo, patients: patients, now: time.Now}
}

func (s *medicalHistoryService) ListHistory(ctx context.Context, patientID string) ([]*domain.MedicalHistoryEntry, error) {
	if patientID == "" {
		return nil, domain.ErrValidation.WithDetails("patient id is required")
	}
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *medicalHistoryService) AddEntry(ctx context.Context, entry *domain.MedicalHistoryEntry) (*domain.MedicalHistoryEntry, error) {
	if entry == nil || entry.PatientID == "" {
		return nil, domain.ErrValidation.WithDetails("patient id is required")
	}
	if strings.TrimSpace(entry.Diagnosis) == "" {
		return nil, domain.ErrValidation.WithDetails("diagnosis is required")
	}

	if _, err := s.patients.FindByID(ctx, entry.PatientID); err != nil {
		return nil, err
	}

	entry.ID = uuid.New().String()
	entry.RecordedBy = ActorFromContext(ctx)
	entry.RecordedAt = s.now().UTC()
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
