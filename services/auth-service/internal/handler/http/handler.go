package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"MedSchedulePlatform/pkg/errors"
	"MedSchedulePlatform/pkg/logger"
	"MedSchedulePlatform/pkg/validation"
	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/middleware"
	"MedSchedulePlatform/services/auth-service/internal/service"
)

// AuthService вход, обновление токенов и выход (service.AuthService)
type AuthService interface {
	Login(ctx context.Context, req service.LoginRequest) (*service.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	LogoutAll(ctx context.Context, username string) (int64, error)
}

// SessionService просмотр сессий (service.SessionRegistry)
type SessionService interface {
	ListActive(ctx context.Context, username string) ([]*domain.Session, error)
}

// BlockService управление блокировками IP (service.BruteForceGuard)
type BlockService interface {
	ListActiveBlocks(ctx context.Context) ([]*domain.BlockedIP, error)
	BlockManually(ctx context.Context, ip, reason string, hours int) error
	Unblock(ctx context.Context, ip string) error
	UnblockAll(ctx context.Context) (int64, error)
	RecentAttempts(ctx context.Context, username string, limit int) ([]*domain.LoginAttempt, error)
}

// Handler HTTP обработчики подсистемы безопасности и PHI
type Handler struct {
	auth      AuthService
	sessions  SessionService
	blocks    BlockService
	patients  service.PatientRecordService
	history   service.MedicalHistoryService
	validator *validation.Validator
	log       logger.Logger
}

// NewHandler создает новый экземпляр Handler
func NewHandler(
	auth AuthService,
	sessions SessionService,
	blocks BlockService,
	patients service.PatientRecordService,
	history service.MedicalHistoryService,
	log logger.Logger,
) *Handler {
	return &Handler{
		auth:      auth,
		sessions:  sessions,
		blocks:    blocks,
		patients:  patients,
		history:   history,
		validator: validation.NewValidator(),
		log:       log,
	}
}

// Register настраивает маршруты /api/v1 на переданном роутере.
// loginLimit ограничивает частоту входа, nil отключает ограничение.
func (h *Handler) Register(r *mux.Router, loginLimit mux.MiddlewareFunc) {
	authRouter := r.PathPrefix("/auth").Subrouter()
	login := http.Handler(http.HandlerFunc(h.handleLogin))
	if loginLimit != nil {
		login = loginLimit(login)
	}
	authRouter.Handle("/login", login).Methods(http.MethodPost)
	authRouter.HandleFunc("/refresh", h.handleRefresh).Methods(http.MethodPost)
	authRouter.HandleFunc("/logout", h.handleLogout).Methods(http.MethodPost)
	authRouter.Handle("/sessions", middleware.RequireRoles()(http.HandlerFunc(h.handleOwnSessions))).Methods(http.MethodGet)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireRoles(domain.RoleAdmin))
	admin.HandleFunc("/blocks", h.handleListBlocks).Methods(http.MethodGet)
	admin.HandleFunc("/blocks", h.handleBlock).Methods(http.MethodPost)
	admin.HandleFunc("/blocks", h.handleUnblockAll).Methods(http.MethodDelete)
	admin.HandleFunc("/blocks/{ip}", h.handleUnblock).Methods(http.MethodDelete)
	admin.HandleFunc("/sessions/{username}", h.handleListSessions).Methods(http.MethodGet)
	admin.HandleFunc("/sessions/{username}", h.handleRevokeSessions).Methods(http.MethodDelete)
	admin.HandleFunc("/attempts/{username}", h.handleListAttempts).Methods(http.MethodGet)

	patients := r.PathPrefix("/patients").Subrouter()
	patients.Use(middleware.RequireRoles(domain.RolePatient, domain.RoleDoctor, domain.RoleAdmin))
	patients.HandleFunc("/{id}", h.handleGetPatient).Methods(http.MethodGet)
	patients.HandleFunc("/{id}", h.handleUpdatePatient).Methods(http.MethodPut)
	patients.HandleFunc("/{id}/history", h.handleListHistory).Methods(http.MethodGet)
	patients.Handle("/{id}/history",
		middleware.RequireRoles(domain.RoleDoctor, domain.RoleAdmin)(http.HandlerFunc(h.handleAddHistory)),
	).Methods(http.MethodPost)
}

// handleError отдает ошибку в JSON. Ошибки без кода логируются как внутренние.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := errors.FromError(err)
	if appErr.HTTPStatus() >= http.StatusInternalServerError {
		h.log.Error("Request failed",
			logger.CtxField(r.Context()),
			logger.Error(err),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path))
	}
	errors.WriteJSON(w, appErr)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return errors.Wrap(err, errors.ErrValidation, "invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
