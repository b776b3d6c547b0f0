package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"MedSchedulePlatform/pkg/logger"
	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/pkg/jwt"
	"MedSchedulePlatform/services/auth-service/internal/repository/memory"
	"MedSchedulePlatform/services/auth-service/internal/service"
)

// recordingToucher запоминает переданные сессии
type recordingToucher struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingToucher) Submit(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, sessionID)
	return true
}

func (r *recordingToucher) Submitted() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

type stack struct {
	now       time.Time
	sessions  *service.SessionRegistry
	tokens    *service.TokenService
	directory *service.Directory
	guard     *service.BruteForceGuard
	toucher   *recordingToucher
	people    *memory.Directory
}

func newStack(t *testing.T) *stack {
	t.Helper()

	s := &stack{
		now:     time.Now().UTC(),
		toucher: &recordingToucher{},
		people:  memory.NewDirectory(),
	}
	log := logger.NewNop()

	s.sessions = service.NewSessionRegistry(memory.NewSessionRepository(), nil, log)
	s.tokens = service.NewTokenService(
		jwt.NewManager("middleware-secret", 15*time.Minute),
		memory.NewRefreshTokenRepository(time.Now),
		time.Hour,
	)
	s.directory = service.NewDirectory(s.people.Doctors(), s.people.Patients())
	s.guard = service.NewBruteForceGuard(
		memory.NewLoginAttemptRepository(),
		memory.NewBlockedIPRepository(),
		service.BruteForceConfig{MaxAttempts: 5, Window: 15 * time.Minute, BlockDuration: time.Hour},
		nil, nil, log,
	)

	s.people.AddDoctor(&domain.DoctorPrincipal{ID: "doc-1", Username: "house", FullName: "Gregory House"})
	s.people.AddPatient(&domain.PatientPrincipal{ID: "pat-1", Username: "jane", FullName: "Jane Doe"})
	return s
}

// login создает сессию и access токен без проверки пароля
func (s *stack) login(t *testing.T, principal domain.Principal) (string, *domain.Session) {
	t.Helper()

	identity := principal.Identity()
	session, err := s.sessions.CreateSession(context.Background(), identity.Username, "10.0.0.1", "test", identity.UserType)
	require.NoError(t, err)

	token, err := s.tokens.IssueAccessToken(principal, session.ID)
	require.NoError(t, err)
	return token, session
}

// whoAmI отвечает 200 и именем субъекта или "anonymous"
func whoAmI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := service.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
		if !ok {
			w.Write([]byte("anonymous"))
			return
		}
		w.Write([]byte(identity.Username + ":" + string(identity.Role)))
	})
}

func bearerRequest(method, path, token string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}
