package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"MedSchedulePlatform/pkg/errors"
	"MedSchedulePlatform/pkg/logger"
	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/metrics"
	"MedSchedulePlatform/services/auth-service/internal/pkg/clientip"
	"MedSchedulePlatform/services/auth-service/internal/repository"
)

// auditIdentifiable объект, сам сообщающий идентификатор для аудита
type auditIdentifiable interface {
	AuditID() string
}

// AuditRecorder пишет журнал доступа к PHI.
// Ошибка записи журнала логируется и никогда не возвращается.
type AuditRecorder struct {
	repo    repository.AuditRepository
	metrics *metrics.SecurityMetrics
	log     logger.Logger
	now     func() time.Time
}

// NewAuditRecorder создает новый экземпляр AuditRecorder
func NewAuditRecorder(repo repository.AuditRepository, securityMetrics *metrics.SecurityMetrics, log logger.Logger) *AuditRecorder {
	return &AuditRecorder{repo: repo, metrics: securityMetrics, log: log, now: time.Now}
}

// Record сохраняет запись аудита по операции над сущностью entityType.
// Идентификатор сущности берется из первого аргумента.
func (a *AuditRecorder) Record(ctx context.Context, action domain.AuditAction, entityType, operation string, args ...interface{}) {
	entry := &domain.AuditEntry{
		ID:         uuid.New().String(),
		Actor:      ActorFromContext(ctx),
		Action:     action,
		EntityType: entityType,
		EntityID:   auditEntityID(args),
		Detail:     auditDetail(operation, args),
		IPAddress:  clientip.FromContext(ctx),
		CreatedAt:  a.now().UTC(),
	}

	if err := a.repo.Create(ctx, entry); err != nil {
		a.metrics.AuditFailed()
		a.log.Error("Failed to write audit entry",
			logger.CtxField(ctx),
			logger.Error(errors.Wrap(err, errors.ErrAuditLogFailure, domain.ErrAuditLogFailure.Message)),
			logger.String("actor", entry.Actor),
			logger.String("action", string(action)),
			logger.String("entity_type", entityType),
			logger.String("entity_id", entry.EntityID))
	}
}

func auditEntityID(args []interface{}) string {
	if len(args) == 0 || args[0] == nil {
		return ""
	}
	if identifiable, ok := args[0].(auditIdentifiable); ok {
		return identifiable.AuditID()
	}
	return fmt.Sprint(args[0])
}

func auditDetail(operation string, args []interface{}) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = fmt.Sprint(arg)
	}
	return operation + "(" + strings.Join(parts, ", ") + ")"
}

// AuditedPatientRecords оборачивает PatientRecordService журналом аудита
type AuditedPatientRecords struct {
	next     PatientRecordService
	recorder *AuditRecorder
}

// NewAuditedPatientRecords создает декоратор
func NewAuditedPatientRecords(next PatientRecordService, recorder *AuditRecorder) *AuditedPatientRecords {
	return &AuditedPatientRecords{next: next, recorder: recorder}
}

func (s *AuditedPatientRecords) GetPatient(ctx context.Context, id string) (*domain.PatientRecord, error) {
	record, err := s.next.GetPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	s.recorder.Record(ctx, domain.AuditReadPHI, "PatientRecord", "GetPatient", id)
	return record, nil
}

func (s *AuditedPatientRecords) UpdatePatient(ctx context.Context, record *domain.PatientRecord) (*domain.PatientRecord, error) {
	updated, err := s.next.UpdatePatient(ctx, record)
	if err != nil {
		return nil, err
	}
	s.recorder.Record(ctx, domain.AuditWritePHI, "PatientRecord", "UpdatePatient", record)
	return updated, nil
}

// AuditedMedicalHistory оборачивает MedicalHistoryService журналом аудита
type AuditedMedicalHistory struct {
	next     MedicalHistoryService
	recorder *AuditRecorder
}

// NewAuditedMedicalHistory создает декоратор
func NewAuditedMedicalHistory(next MedicalHistoryService, recorder *AuditRecorder) *AuditedMedicalHistory {
	return &AuditedMedicalHistory{next: next, recorder: recorder}
}

func (s *AuditedMedicalHistory) ListHistory(ctx context.Context, patientID string) ([]*domain.MedicalHistoryEntry, error) {
	entries, err := s.next.ListHistory(ctx, patientID)
	if err != nil {
		return nil, err
	}
	s.recorder.Record(ctx, domain.AuditReadPHI, "MedicalHistory", "ListHistory", patientID)
	return entries, nil
}

func (s *AuditedMedicalHistory) AddEntry(ctx context.Context, entry *domain.MedicalHistoryEntry) (*domain.MedicalHistoryEntry, error) {
	created, err := s.next.AddEntry(ctx, entry)
	if err != nil {
		return nil, err
	}
	s.recorder.Record(ctx, domain.AuditWritePHI, "MedicalHistory", "AddEntry", created)
	return created, nil
}
