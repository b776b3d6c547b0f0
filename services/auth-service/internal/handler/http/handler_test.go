package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"MedSchedulePlatform/pkg/logger"
	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/service"
)

var (
	adminIdentity   = &domain.Identity{PrincipalID: "doc-1", Username: "root", Role: domain.RoleAdmin, UserType: domain.UserTypeDoctor}
	doctorIdentity  = &domain.Identity{PrincipalID: "doc-2", Username: "house", Role: domain.RoleDoctor, UserType: domain.UserTypeDoctor}
	patientIdentity = &domain.Identity{PrincipalID: "pat-1", Username: "jane", Role: domain.RolePatient, UserType: domain.UserTypePatient}
)

type testEnv struct {
	auth     *MockAuthService
	sessions *MockSessionService
	blocks   *MockBlockService
	patients *MockPatientRecordService
	history  *MockMedicalHistoryService
	handler  *Handler
}

func newTestEnv() *testEnv {
	env := &testEnv{
		auth:     new(MockAuthService),
		sessions: new(MockSessionService),
		blocks:   new(MockBlockService),
		patients: new(MockPatientRecordService),
		history:  new(MockMedicalHistoryService),
	}
	env.handler = NewHandler(env.auth, env.sessions, env.blocks, env.patients, env.history, logger.NewNop())
	return env
}

// serve выполняет запрос от имени identity (nil - анонимно)
func (e *testEnv) serve(identity *domain.Identity, method, path, body string) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity != nil {
				r = r.WithContext(service.WithIdentity(r.Context(), *identity))
			}
			next.ServeHTTP(w, r)
		})
	})
	e.handler.Register(api, nil)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "10.0.0.5:40000"
	req.Header.Set("User-Agent", "handler-test")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestHandleLogin_Success(t *testing.T) {
	env := newTestEnv()
	env.auth.On("Login", mock.Anything, service.LoginRequest{
		Username:  "house",
		Password:  "vicodin",
		IPAddress: "10.0.0.5",
		UserAgent: "handler-test",
	}).Return(&service.TokenPair{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", ExpiresIn: 900}, nil)

	rec := env.serve(nil, http.MethodPost, "/api/v1/auth/login", `{"username":"house","password":"vicodin"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var pair service.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	assert.Equal(t, "access", pair.AccessToken)
	assert.Equal(t, int64(900), pair.ExpiresIn)
	env.auth.AssertExpectations(t)
}

func TestHandleLogin_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{"invalid credentials", `{"username":"house","password":"x"}`, domain.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"account locked", `{"username":"house","password":"x"}`, domain.ErrAccountLocked, http.StatusForbidden, "ACCOUNT_LOCKED"},
		{"ip blocked", `{"username":"house","password":"x"}`, domain.ErrIPBlocked, http.StatusForbidden, "IP_BLOCKED"},
		{"missing password", `{"username":"house"}`, nil, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"malformed body", `{"username":`, nil, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			if tt.err != nil {
				env.auth.On("Login", mock.Anything, mock.Anything).Return(nil, tt.err)
			}

			rec := env.serve(nil, http.MethodPost, "/api/v1/auth/login", tt.body)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
			if tt.err == nil {
				env.auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestHandleLogin_RateLimited(t *testing.T) {
	env := newTestEnv()
	router := mux.NewRouter()
	limit := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	env.handler.Register(router.PathPrefix("/api/v1").Subrouter(), limit)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	env.auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestHandleRefresh(t *testing.T) {
	env := newTestEnv()
	env.auth.On("Refresh", mock.Anything, "old-refresh").Return(&service.TokenPair{AccessToken: "a2", RefreshToken: "r2"}, nil)
	env.auth.On("Refresh", mock.Anything, "used-refresh").Return(nil, domain.ErrTokenInvalid)

	rec := env.serve(nil, http.MethodPost, "/api/v1/auth/refresh", `{"refresh_token":"old-refresh"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"refresh_token":"r2"`)

	rec = env.serve(nil, http.MethodPost, "/api/v1/auth/refresh", `{"refresh_token":"used-refresh"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_INVALID", errorCode(t, rec))

	rec = env.serve(nil, http.MethodPost, "/api/v1/auth/refresh", `{"refresh_token":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleLogout(t *testing.T) {
	env := newTestEnv()
	env.auth.On("Logout", mock.Anything, "access-token", "refresh-token").Return(nil)

	router := mux.NewRouter()
	env.handler.Register(router.PathPrefix("/api/v1").Subrouter(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", strings.NewReader(`{"refresh_token":"refresh-token"}`))
	req.Header.Set("Authorization", "Bearer access-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	env.auth.AssertExpectations(t)

	rec = env.serve(nil, http.MethodPost, "/api/v1/auth/logout", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleOwnSessions(t *testing.T) {
	env := newTestEnv()
	env.sessions.On("ListActive", mock.Anything, "house").Return([]*domain.Session{{ID: "s1", Username: "house", Active: true}}, nil)

	rec := env.serve(doctorIdentity, http.MethodGet, "/api/v1/auth/sessions", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"s1"`)

	rec = env.serve(nil, http.MethodGet, "/api/v1/auth/sessions", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	env := newTestEnv()

	rec := env.serve(doctorIdentity, http.MethodGet, "/api/v1/admin/blocks", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.serve(nil, http.MethodGet, "/api/v1/admin/blocks", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	env.blocks.AssertNotCalled(t, "ListActiveBlocks", mock.Anything)
}

func TestHandleBlock(t *testing.T) {
	env := newTestEnv()
	env.blocks.On("BlockManually", mock.Anything, "10.0.0.9", "scanner", 24).Return(nil).Once()
	env.blocks.On("BlockManually", mock.Anything, "10.0.0.9", "scanner", 24).Return(domain.ErrAlreadyBlocked).Once()

	body := `{"ip_address":"10.0.0.9","reason":"scanner","hours":24}`
	rec := env.serve(adminIdentity, http.MethodPost, "/api/v1/admin/blocks", body)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.serve(adminIdentity, http.MethodPost, "/api/v1/admin/blocks", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ALREADY_BLOCKED", errorCode(t, rec))

	rec = env.serve(adminIdentity, http.MethodPost, "/api/v1/admin/blocks", `{"ip_address":"not-an-ip","hours":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.serve(adminIdentity, http.MethodPost, "/api/v1/admin/blocks", `{"ip_address":"10.0.0.9","hours":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.blocks.AssertExpectations(t)
}

func TestHandleUnblock(t *testing.T) {
	env := newTestEnv()
	env.blocks.On("Unblock", mock.Anything, "10.0.0.9").Return(nil)
	env.blocks.On("Unblock", mock.Anything, "10.0.0.10").Return(domain.ErrNotBlocked)
	env.blocks.On("UnblockAll", mock.Anything).Return(int64(3), nil)

	rec := env.serve(adminIdentity, http.MethodDelete, "/api/v1/admin/blocks/10.0.0.9", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.serve(adminIdentity, http.MethodDelete, "/api/v1/admin/blocks/10.0.0.10", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"NOT_BLOCKED"`)

	rec = env.serve(adminIdentity, http.MethodDelete, "/api/v1/admin/blocks", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"unblocked":3}`, rec.Body.String())
}

func TestHandleAdminSessions(t *testing.T) {
	env := newTestEnv()
	env.sessions.On("ListActive", mock.Anything, "jane").Return([]*domain.Session{}, nil)
	env.auth.On("LogoutAll", mock.Anything, "jane").Return(int64(2), nil)

	rec := env.serve(adminIdentity, http.MethodGet, "/api/v1/admin/sessions/jane", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.serve(adminIdentity, http.MethodDelete, "/api/v1/admin/sessions/jane", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deactivated":2}`, rec.Body.String())
}

func TestHandleListAttempts(t *testing.T) {
	env := newTestEnv()
	env.blocks.On("RecentAttempts", mock.Anything, "jane", 10).Return([]*domain.LoginAttempt{{Username: "jane"}}, nil)

	rec := env.serve(adminIdentity, http.MethodGet, "/api/v1/admin/attempts/jane?limit=10", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.serve(adminIdentity, http.MethodGet, "/api/v1/admin/attempts/jane?limit=ten", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPatientRoutes_OwnRecordOnly(t *testing.T) {
	env := newTestEnv()
	env.patients.On("GetPatient", mock.Anything, "pat-1").Return(&domain.PatientRecord{ID: "pat-1", FullName: "Jane Doe"}, nil)

	rec := env.serve(patientIdentity, http.MethodGet, "/api/v1/patients/pat-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.serve(patientIdentity, http.MethodGet, "/api/v1/patients/pat-2", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.serve(doctorIdentity, http.MethodGet, "/api/v1/patients/pat-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.serve(nil, http.MethodGet, "/api/v1/patients/pat-1", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	env.patients.AssertNumberOfCalls(t, "GetPatient", 2)
}

func TestHandleUpdatePatient(t *testing.T) {
	env := newTestEnv()
	env.patients.On("UpdatePatient", mock.Anything, mock.MatchedBy(func(record *domain.PatientRecord) bool {
		return record.ID == "pat-1" && record.Phone == "+1-555-0100"
	})).Return(&domain.PatientRecord{ID: "pat-1", FullName: "Jane Doe"}, nil)

	rec := env.serve(patientIdentity, http.MethodPut, "/api/v1/patients/pat-1", `{"full_name":"Jane Doe","phone":"+1-555-0100"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	env.patients.AssertExpectations(t)
}

func TestHandleHistory(t *testing.T) {
	env := newTestEnv()
	env.history.On("ListHistory", mock.Anything, "pat-1").Return([]*domain.MedicalHistoryEntry{{ID: "h1", PatientID: "pat-1"}}, nil)
	env.history.On("AddEntry", mock.Anything, mock.MatchedBy(func(entry *domain.MedicalHistoryEntry) bool {
		return entry.PatientID == "pat-1" && entry.Diagnosis == "flu"
	})).Return(&domain.MedicalHistoryEntry{ID: "h2", PatientID: "pat-1"}, nil)

	rec := env.serve(patientIdentity, http.MethodGet, "/api/v1/patients/pat-1/history", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.serve(patientIdentity, http.MethodPost, "/api/v1/patients/pat-1/history", `{"diagnosis":"flu"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.serve(doctorIdentity, http.MethodPost, "/api/v1/patients/pat-1/history", `{"diagnosis":"flu","treatment":"rest"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	env.history.AssertNumberOfCalls(t, "AddEntry", 1)
}
