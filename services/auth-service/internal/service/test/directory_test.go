package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/mocks"
	"MedSchedulePlatform/services/auth-service/internal/service"
)

func TestDirectory_DoctorFirst(t *testing.T) {
	doctors := new(mocks.MockDoctorRepository)
	patients := new(mocks.MockPatientRepository)
	doctors.On("FindByUsername", mock.Anything, "house").Return(&domain.DoctorPrincipal{ID: "d1", Username: "house"}, nil)

	principal, err := service.NewDirectory(doctors, patients).FindPrincipalByUsername(context.Background(), "house")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDoctor, principal.Identity().Role)
	patients.AssertNotCalled(t, "FindByUsername", mock.Anything, mock.Anything)
}

func TestDirectory_FallbackToPatients(t *testing.T) {
	doctors := new(mocks.MockDoctorRepository)
	patients := new(mocks.MockPatientRepository)
	doctors.On("FindByUsername", mock.Anything, "bob").Return(nil, domain.ErrPrincipalNotFound)
	patients.On("FindByUsername", mock.Anything, "bob").Return(&domain.PatientPrincipal{ID: "p1", Username: "bob"}, nil)

	principal, err := service.NewDirectory(doctors, patients).FindPrincipalByUsername(context.Background(), "bob")
	require.NoError(t, err)
	_, isPatient := principal.(*domain.PatientPrincipal)
	assert.True(t, isPatient)
}

func TestDirectory_NotFoundAndErrors(t *testing.T) {
	doctors := new(mocks.MockDoctorRepository)
	patients := new(mocks.MockPatientRepository)
	doctors.On("FindByUsername", mock.Anything, "ghost").Return(nil, domain.ErrPrincipalNotFound)
	patients.On("FindByUsername", mock.Anything, "ghost").Return(nil, domain.ErrPrincipalNotFound)
	doctors.On("FindByUsername", mock.Anything, "broken").Return(nil, errors.New("db down"))

	directory := service.NewDirectory(doctors, patients)

	principal, err := directory.FindPrincipalByUsername(context.Background(), "ghost")
	assert.Nil(t, principal)
	assert.True(t, errors.Is(err, domain.ErrPrincipalNotFound))

	_, err = directory.FindPrincipalByUsername(context.Background(), "broken")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrPrincipalNotFound))
	patients.AssertNotCalled(t, "FindByUsername", mock.Anything, "broken")
}
