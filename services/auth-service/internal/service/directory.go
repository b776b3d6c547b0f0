package service

import (
	"context"

	"MedSchedulePlatform/pkg/errors"
	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/repository"
)

// Directory ищет субъекта по имени в двух независимых справочниках:
// сначала врачи, затем пациенты
type Directory struct {
	doctors  repository.DoctorRepository
	patients repository.PatientRepository
}

// NewDirectory создает новый экземпляр Directory
func NewDirectory(doctors repository.DoctorRepository, patients repository.PatientRepository) *Directory {
	return &Directory{doctors: doctors, patients: patients}
}

// FindPrincipalByUsername возвращает врача или пациента.
// domain.ErrPrincipalNotFound, если имени нет ни в одном справочнике.
func (d *Directory) FindPrincipalByUsername(ctx context.Context, username string) (domain.Principal, error) {
	doctor, err := d.doctors.FindByUsername(ctx, username)
	if err == nil {
		return doctor, nil
	}
	if !errors.Is(err, domain.ErrPrincipalNotFound) {
		return nil, err
	}

	patient, err := d.patients.FindByUsername(ctx, username)
	if err == nil {
		return patient, nil
	}
	return nil, err
}
