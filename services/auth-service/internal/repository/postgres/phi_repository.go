package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/pkg/cipher"
	"MedSchedulePlatform/services/auth-service/internal/repository"
)

// PatientRecordRepository карточки пациентов. Phone, address и date_of_birth
// хранятся зашифрованными.
type PatientRecordRepository struct {
	*BaseRepository
	cipher *cipher.FieldCipher
}

// NewPatientRecordRepository создает новый экземпляр PatientRecordRepository
func NewPatientRecordRepository(pool *pgxpool.Pool, fieldCipher *cipher.FieldCipher) repository.PatientRecordRepository {
	return &PatientRecordRepository{BaseRepository: NewBaseRepository(pool), cipher: fieldCipher}
}

// FindByID возвращает карточку пациента с расшифрованными полями
func (r *PatientRecordRepository) FindByID(ctx context.Context, id string) (*domain.PatientRecord, error) {
	query := `SELECT id, username, full_name, phone, address, date_of_birth, updated_at FROM patients WHERE id = $1`

	var record domain.PatientRecord
	var phone, address, dateOfBirth string
	err := r.QueryRowContext(ctx, query, id).Scan(
		&record.ID,
		&record.Username,
		&record.FullName,
		&phone,
		&address,
		&dateOfBirth,
		&record.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to get patient record: %w", err)
	}

	record.Phone = r.cipher.Decrypt(phone)
	record.Address = r.cipher.Decrypt(address)
	record.DateOfBirth = r.cipher.Decrypt(dateOfBirth)
	return &record, nil
}

// Update сохраняет PHI поля карточки в зашифрованном виде
func (r *PatientRecordRepository) Update(ctx context.Context, record *domain.PatientRecord) error {
	phone, err := r.cipher.Encrypt(record.Phone)
	if err != nil {
		return fmt.Errorf("failed to encrypt phone: %w", err)
	}
	address, err := r.cipher.Encrypt(record.Address)
	if err != nil {
		return fmt.Errorf("failed to encrypt address: %w", err)
	}
	dateOfBirth, err := r.cipher.Encrypt(record.DateOfBirth)
	if err != nil {
		return fmt.Errorf("failed to encrypt date of birth: %w", err)
	}

	affected, err := r.ExecAffected(ctx,
		`UPDATE patients SET full_name = $2, phone = $3, address = $4, date_of_birth = $5, updated_at = $6 WHERE id = $1`,
		record.ID, record.FullName, phone, address, dateOfBirth, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update patient record: %w", err)
	}
	if affected == 0 {
		return domain.ErrPatientNotFound
	}
	return nil
}

// MedicalHistoryRepository история болезни. Diagnosis, treatment и notes
// хранятся зашифрованными.
type MedicalHistoryRepository struct {
	*BaseRepository
	cipher *cipher.FieldCipher
}

// NewMedicalHistoryRepository создает новый экземпляр MedicalHistoryRepository
func NewMedicalHistoryRepository(pool *pgxpool.Pool, fieldCipher *cipher.FieldCipher) repository.MedicalHistoryRepository {
	return &MedicalHistoryRepository{BaseRepository: NewBaseRepository(pool), cipher: fieldCipher}
}

// ListByPatient возвращает историю пациента, новые записи первыми
func (r *MedicalHistoryRepository) ListByPatient(ctx context.Context, patientID string) ([]*domain.MedicalHistoryEntry, error) {
	rows, err := r.QueryContext(ctx,
		`SELECT id, patient_id, diagnosis, treatment, notes, recorded_by, recorded_at
		FROM medical_history WHERE patient_id = $1 ORDER BY recorded_at DESC`, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medical history: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.MedicalHistoryEntry, 0)
	for rows.Next() {
		var entry domain.MedicalHistoryEntry
		var diagnosis, treatment string
		var notes *string
		if err := rows.Scan(
			&entry.ID,
			&entry.PatientID,
			&diagnosis,
			&treatment,
			&notes,
			&entry.RecordedBy,
			&entry.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan medical history: %w", err)
		}
		entry.Diagnosis = r.cipher.Decrypt(diagnosis)
		entry.Treatment = r.cipher.Decrypt(treatment)
		entry.Notes = r.cipher.DecryptPtr(notes)
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate medical history: %w", err)
	}
	return entries, nil
}

// Create сохраняет запись истории в зашифрованном виде
func (r *MedicalHistoryRepository) Create(ctx context.Context, entry *domain.MedicalHistoryEntry) error {
	diagnosis, err := r.cipher.Encrypt(entry.Diagnosis)
	if err != nil {
		return fmt.Errorf("failed to encrypt diagnosis: %w", err)
	}
	treatment, err := r.cipher.Encrypt(entry.Treatment)
	if err != nil {
		return fmt.Errorf("failed to encrypt treatment: %w", err)
	}
	notes, err := r.cipher.EncryptPtr(entry.Notes)
	if err != nil {
		return fmt.Errorf("failed to encrypt notes: %w", err)
	}

	_, err = r.Pool.Exec(ctx,
		`INSERT INTO medical_history (id, patient_id, diagnosis, treatment, notes, recorded_by, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.PatientID, diagnosis, treatment, notes, entry.RecordedBy, entry.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to create medical history entry: %w", err)
	}
	return nil
}
