package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/repository"
)

// DoctorRepository реализация справочника врачей для PostgreSQL
type DoctorRepository struct {
	*BaseRepository
}

// NewDoctorRepository создает новый экземпляр DoctorRepository
func NewDoctorRepository(pool *pgxpool.Pool) repository.DoctorRepository {
	return &DoctorRepository{BaseRepository: NewBaseRepository(pool)}
}

// FindByUsername возвращает врача по имени пользователя
func (r *DoctorRepository) FindByUsername(ctx context.Context, username string) (*domain.DoctorPrincipal, error) {
	query := `SELECT id, username, password_hash, full_name, is_admin FROM doctors WHERE username = $1`

	var doctor domain.DoctorPrincipal
	err := r.QueryRowContext(ctx, query, username).Scan(
		&doctor.ID,
		&doctor.Username,
		&doctor.PasswordHash,
		&doctor.FullName,
		&doctor.IsAdmin,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("failed to get doctor by username: %w", err)
	}

	return &doctor, nil
}

// PatientRepository реализация справочника пациентов для PostgreSQL
type PatientRepository struct {
	*BaseRepository
}

// NewPatientRepository создает новый экземпляр PatientRepository
func NewPatientRepository(pool *pgxpool.Pool) repository.PatientRepository {
	return &PatientRepository{BaseRepository: NewBaseRepository(pool)}
}

// FindByUsername возвращает пациента по имени пользователя
func (r *PatientRepository) FindByUsername(ctx context.Context, username string) (*domain.PatientPrincipal, error) {
	query := `SELECT id, username, password_hash, full_name FROM patients WHERE username = $1`

	var patient domain.PatientPrincipal
	err := r.QueryRowContext(ctx, query, username).Scan(
		&patient.ID,
		&patient.Username,
		&patient.PasswordHash,
		&patient.FullName,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("failed to get patient by username: %w", err)
	}

	return &patient, nil
}
