package service_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"MedSchedulePlatform/pkg/logger"
	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/pkg/jwt"
	"MedSchedulePlatform/services/auth-service/internal/pkg/password"
	"MedSchedulePlatform/services/auth-service/internal/repository/memory"
	"MedSchedulePlatform/services/auth-service/internal/service"
)

const testSecret = "test-access-secret"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fixture собирает сервисы поверх хранилищ в памяти и общих часов
type fixture struct {
	clock     *fakeClock
	attempts  *memory.LoginAttemptRepository
	blocks    *memory.BlockedIPRepository
	sessions  *memory.SessionRepository
	refresh   *memory.RefreshTokenRepository
	directory *memory.Directory

	guard    *service.BruteForceGuard
	registry *service.SessionRegistry
	tokens   *service.TokenService
	auth     *service.AuthService
	hasher   *password.BcryptHasher
}

func defaultBruteForceConfig() service.BruteForceConfig {
	return service.BruteForceConfig{
		MaxAttempts:   5,
		Window:        15 * time.Minute,
		BlockDuration: time.Hour,
	}
}

func newFixture(t *testing.T, events service.SecurityEventPublisher) *fixture {
	t.Helper()

	f := &fixture{
		clock:     newFakeClock(),
		attempts:  memory.NewLoginAttemptRepository(),
		blocks:    memory.NewBlockedIPRepository(),
		sessions:  memory.NewSessionRepository(),
		directory: memory.NewDirectory(),
		hasher:    password.NewBcryptHasher(4),
	}
	f.refresh = memory.NewRefreshTokenRepository(f.clock.Now)

	log := logger.NewNop()
	f.guard = service.NewBruteForceGuard(f.attempts, f.blocks, defaultBruteForceConfig(), events, nil, log).
		WithClock(f.clock.Now)
	f.registry = service.NewSessionRegistry(f.sessions, nil, log).WithClock(f.clock.Now)

	jwtManager := jwt.NewManager(testSecret, 15*time.Minute).WithClock(f.clock.Now)
	f.tokens = service.NewTokenService(jwtManager, f.refresh, 24*time.Hour).WithClock(f.clock.Now)

	directory := service.NewDirectory(f.directory.Doctors(), f.directory.Patients())
	f.auth = service.NewAuthService(directory, f.hasher, f.guard, f.registry, f.tokens, nil, log)
	return f
}

func (f *fixture) addDoctor(t *testing.T, username, pass string, admin bool) *domain.DoctorPrincipal {
	t.Helper()
	hash, err := f.hasher.Hash(pass)
	require.NoError(t, err)
	doctor := &domain.DoctorPrincipal{ID: "doc-" + username, Username: username, PasswordHash: hash, FullName: "Dr " + username, IsAdmin: admin}
	f.directory.AddDoctor(doctor)
	return doctor
}

func (f *fixture) addPatient(t *testing.T, username, pass string) *domain.PatientPrincipal {
	t.Helper()
	hash, err := f.hasher.Hash(pass)
	require.NoError(t, err)
	patient := &domain.PatientPrincipal{ID: "pat-" + username, Username: username, PasswordHash: hash, FullName: username}
	f.directory.AddPatient(patient)
	return patient
}
