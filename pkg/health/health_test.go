package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDependencyChecker_AllHealthy(t *testing.T) {
	checker := NewDependencyChecker("1.0.0", time.Second)
	checker.Register("postgres", func(ctx context.Context) error { return nil })
	checker.Register("redis", func(ctx context.Context) error { return nil })

	status := checker.Check(context.Background())
	assert.True(t, status.Healthy())
	assert.Equal(t, "1.0.0", status.Version)
	assert.Len(t, status.Services, 2)
}

func TestDependencyChecker_OneUnhealthy(t *testing.T) {
	checker := NewDependencyChecker("1.0.0", time.Second)
	checker.Register("postgres", func(ctx context.Context) error { return nil })
	checker.Register("redis", func(ctx context.Context) error { return errors.New("connection refused") })

	status := checker.Check(context.Background())
	assert.False(t, status.Healthy())
	assert.Equal(t, StatusUnhealthy, status.Services["redis"].Status)
	assert.Equal(t, "connection refused", status.Services["redis"].Details)
	assert.Equal(t, StatusHealthy, status.Services["postgres"].Status)
}

func TestHandler(t *testing.T) {
	checker := NewDependencyChecker("1.0.0", time.Second)
	checker.Register("postgres", func(ctx context.Context) error { return nil })

	rec := httptest.NewRecorder()
	Handler(checker)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, StatusHealthy, status.Status)

	checker.Register("redis", func(ctx context.Context) error { return errors.New("down") })
	rec = httptest.NewRecorder()
	Handler(checker)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadyHandler(t *testing.T) {
	checker := NewDependencyChecker("1.0.0", time.Second)

	rec := httptest.NewRecorder()
	ReadyHandler(checker)(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ready")

	checker.Register("postgres", func(ctx context.Context) error { return errors.New("down") })
	rec = httptest.NewRecorder()
	ReadyHandler(checker)(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alive")
}
