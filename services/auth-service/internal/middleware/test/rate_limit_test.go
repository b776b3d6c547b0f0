package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"MedSchedulePlatform/pkg/logger"
	"MedSchedulePlatform/pkg/mocks"
	"MedSchedulePlatform/services/auth-service/internal/domain"
	"MedSchedulePlatform/services/auth-service/internal/middleware"
	"MedSchedulePlatform/services/auth-service/internal/service"
)

func TestRateLimitMiddleware_ByIP(t *testing.T) {
	limiter := new(mocks.MockRateLimiter)
	limiter.On("CheckRateLimit", mock.Anything, "ip:10.0.0.5", 10, time.Minute).Return(false, nil).Once()
	limiter.On("CheckRateLimit", mock.Anything, "ip:10.0.0.5", 10, time.Minute).Return(true, nil).Once()

	handler := middleware.RateLimitMiddleware(limiter, 10, time.Minute, false, logger.NewNop())(whoAmI())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFrom("/api/v1/auth/login", "10.0.0.5"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFrom("/api/v1/auth/login", "10.0.0.5"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "TOO_MANY_REQUESTS")

	limiter.AssertExpectations(t)
}

func TestRateLimitMiddleware_ByUser(t *testing.T) {
	limiter := new(mocks.MockRateLimiter)
	limiter.On("CheckRateLimit", mock.Anything, "user:house", 5, time.Minute).Return(false, nil)

	handler := middleware.RateLimitMiddleware(limiter, 5, time.Minute, true, logger.NewNop())(whoAmI())

	req := requestFrom("/api/v1/patients/pat-1", "10.0.0.5")
	req = req.WithContext(service.WithIdentity(req.Context(), domain.Identity{Username: "house", Role: domain.RoleDoctor}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	limiter.AssertExpectations(t)
}

func TestRateLimitMiddleware_LimiterUnavailable(t *testing.T) {
	limiter := new(mocks.MockRateLimiter)
	limiter.On("CheckRateLimit", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(false, errors.New("redis: connection refused"))

	handler := middleware.RateLimitMiddleware(limiter, 5, time.Minute, false, logger.NewNop())(whoAmI())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestFrom("/api/v1/auth/login", "10.0.0.5"))
	assert.Equal(t, http.StatusOK, rec.Code)
}
