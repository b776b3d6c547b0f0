package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"MedSchedulePlatform/pkg/logger"
	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/mocks"
	"MedSchedulePlatform/services/auth-service/internal/service"
)

func TestSessionRegistry_CreateAndTouch(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	session, err := f.registry.CreateSession(ctx, "bob", "10.0.0.9", "ua", domain.UserTypePatient)
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.True(t, session.Active)
	assert.Equal(t, session.LoginTime, session.LastActivity)

	f.clock.Advance(10 * time.Minute)
	require.NoError(t, f.registry.TouchActivity(ctx, session.ID))

	stored, err := f.sessions.FindByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now(), stored.LastActivity)
}

func TestSessionRegistry_TouchUnknownOrInactive(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	assert.True(t, errors.Is(f.registry.TouchActivity(ctx, "missing"), domain.ErrSessionNotFound))
	assert.True(t, errors.Is(f.registry.TouchActivity(ctx, ""), domain.ErrSessionNotFound))

	session, err := f.registry.CreateSession(ctx, "bob", "10.0.0.9", "ua", domain.UserTypePatient)
	require.NoError(t, err)
	require.NoError(t, f.registry.Deactivate(ctx, session.ID))
	assert.True(t, errors.Is(f.registry.TouchActivity(ctx, session.ID), domain.ErrSessionNotFound))
}

func TestSessionRegistry_Deactivate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	session, err := f.registry.CreateSession(ctx, "bob", "10.0.0.9", "ua", domain.UserTypePatient)
	require.NoError(t, err)

	active, err := f.registry.IsActive(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, f.registry.Deactivate(ctx, session.ID))
	assert.True(t, errors.Is(f.registry.Deactivate(ctx, session.ID), domain.ErrSessionNotFound))

	active, err = f.registry.IsActive(ctx, session.ID)
	require.NoError(t, err)
	assert.False(t, active)

	active, err = f.registry.IsActive(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestSessionRegistry_DeactivateAllAndList(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.registry.CreateSession(ctx, "carol", "10.0.0.1", "ua", domain.UserTypeDoctor)
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}
	other, err := f.registry.CreateSession(ctx, "dave", "10.0.0.2", "ua", domain.UserTypeDoctor)
	require.NoError(t, err)

	sessions, err := f.registry.ListActive(ctx, "carol")
	require.NoError(t, err)
	assert.Len(t, sessions, 3)

	n, err := f.registry.DeactivateAll(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	sessions, err = f.registry.ListActive(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, sessions)

	active, err := f.registry.IsActive(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, active)
}

// Сессия остается активной до прохода очистки, даже если уже просрочена
func TestSessionRegistry_SweepExpired(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	stale, err := f.registry.CreateSession(ctx, "bob", "10.0.0.9", "ua", domain.UserTypePatient)
	require.NoError(t, err)
	f.clock.Advance(20 * time.Minute)
	fresh, err := f.registry.CreateSession(ctx, "bob", "10.0.0.9", "ua", domain.UserTypePatient)
	require.NoError(t, err)
	f.clock.Advance(15 * time.Minute)

	active, err := f.registry.IsActive(ctx, stale.ID)
	require.NoError(t, err)
	assert.True(t, active)

	n, err := f.registry.SweepExpired(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	active, err = f.registry.IsActive(ctx, stale.ID)
	require.NoError(t, err)
	assert.False(t, active)
	active, err = f.registry.IsActive(ctx, fresh.ID)
	require.NoError(t, err)
	assert.True(t, active)

	n, err = f.registry.SweepExpired(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSessionRegistry_RepositoryErrors(t *testing.T) {
	repo := new(mocks.MockSessionRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))
	repo.On("FindByID", mock.Anything, "s1").Return(nil, errors.New("db down"))
	repo.On("DeactivateInactiveBefore", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))

	registry := service.NewSessionRegistry(repo, nil, logger.NewNop())
	ctx := context.Background()

	_, err := registry.CreateSession(ctx, "bob", "10.0.0.9", "ua", domain.UserTypePatient)
	assert.Error(t, err)

	_, err = registry.IsActive(ctx, "s1")
	assert.Error(t, err)

	_, err = registry.SweepExpired(ctx, time.Minute)
	assert.Error(t, err)
	repo.AssertExpectations(t)
}
