package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// HealthChecker интерфейс для проверки здоровья сервиса
type HealthChecker interface {
	Check(ctx context.Context) *HealthStatus
}

// HealthStatus представляет статус здоровья сервиса
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]Status `json:"services,omitempty"`
	Version   string            `json:"version,omitempty"`
}

// Healthy сообщает, что все зависимости отвечают
func (s *HealthStatus) Healthy() bool {
	return s.Status == StatusHealthy
}

// Status представляет статус зависимости
type Status struct {
	Status  string `json:"status"`
	Details string `json:"details,omitempty"`
}

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc проверка одной зависимости (postgres, redis и т.д.)
type CheckFunc func(ctx context.Context) error

// DependencyChecker проверяет набор зависимостей параллельно
type DependencyChecker struct {
	version string
	timeout time.Duration

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// NewDependencyChecker создает новый DependencyChecker
func NewDependencyChecker(version string, timeout time.Duration) *DependencyChecker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &DependencyChecker{
		version: version,
		timeout: timeout,
		checks:  make(map[string]CheckFunc),
	}
}

// Register добавляет проверку зависимости
func (d *DependencyChecker) Register(name string, check CheckFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.checks[name] = check
}

// Check проверяет здоровье сервиса
func (d *DependencyChecker) Check(ctx context.Context) *HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	d.mu.RLock()
	names := make([]string, 0, len(d.checks))
	for name := range d.checks {
		names = append(names, name)
	}
	d.mu.RUnlock()
	sort.Strings(names)

	results := make([]Status, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		d.mu.RLock()
		check := d.checks[name]
		d.mu.RUnlock()

		wg.Add(1)
		go func(i int, check CheckFunc) {
			defer wg.Done()
			if err := check(ctx); err != nil {
				results[i] = Status{Status: StatusUnhealthy, Details: err.Error()}
				return
			}
			results[i] = Status{Status: StatusHealthy}
		}(i, check)
	}
	wg.Wait()

	status := &HealthStatus{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Services:  make(map[string]Status, len(names)),
		Version:   d.version,
	}
	for i, name := range names {
		status.Services[name] = results[i]
		if results[i].Status != StatusHealthy {
			status.Status = StatusUnhealthy
		}
	}
	return status
}

// Handler создает HTTP обработчик для health check эндпоинта.
// Отвечает 503, если хотя бы одна зависимость недоступна.
func Handler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := checker.Check(r.Context())

		code := http.StatusOK
		if !status.Healthy() {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, status)
	}
}

// ReadyHandler создает HTTP обработчик для ready check эндпоинта
// Возвращает 200 если сервис готов принимать трафик
func ReadyHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !checker.Check(r.Context()).Healthy() {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// LiveHandler создает HTTP обработчик для live check эндпоинта
// Возвращает 200 если сервис жив
func LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	}
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
