package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Metrics представляет систему HTTP метрик
type Metrics struct {
	RequestCount    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ErrorsCount     *prometheus.CounterVec

	// OpenTelemetry Tracer
	Tracer trace.Tracer `json:"-"`

	gatherer prometheus.Gatherer
}

// NewMetrics создает новую систему метрик и регистрирует ее в reg.
// Если reg == nil, используется глобальный реестр Prometheus.
func NewMetrics(serviceName string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	requestCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	errorsCount := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Total number of HTTP errors",
		},
		[]string{"method", "endpoint", "error_type"},
	)

	requestCount = MustRegister(reg, requestCount).(*prometheus.CounterVec)
	requestDuration = MustRegister(reg, requestDuration).(*prometheus.HistogramVec)
	errorsCount = MustRegister(reg, errorsCount).(*prometheus.CounterVec)

	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	return &Metrics{
		RequestCount:    requestCount,
		RequestDuration: requestDuration,
		ErrorsCount:     errorsCount,
		Tracer:          otel.Tracer(serviceName),
		gatherer:        gatherer,
	}
}

// MustRegister регистрирует коллектор. Если такой уже зарегистрирован,
// возвращает существующий, иначе паникует на ошибке.
func MustRegister(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

// GetHandler возвращает HTTP обработчик для эндпоинта /metrics
func (m *Metrics) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware создает middleware для сбора метрик
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := routeTemplate(r)

		ctx, span := m.Tracer.Start(r.Context(), r.Method+" "+endpoint)
		defer span.End()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(wrapped, r.WithContext(ctx))

		duration := time.Since(start).Seconds()

		m.RequestCount.WithLabelValues(r.Method, endpoint, strconv.Itoa(wrapped.statusCode)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(duration)

		if wrapped.statusCode >= 400 {
			errorType := "client_error"
			if wrapped.statusCode >= 500 {
				errorType = "server_error"
			}
			m.ErrorsCount.WithLabelValues(r.Method, endpoint, errorType).Inc()
		}

		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", endpoint),
			attribute.Int("http.status_code", wrapped.statusCode),
			attribute.Float64("http.duration", duration),
		)
	})
}

// routeTemplate возвращает шаблон маршрута mux, чтобы IP и имена
// пользователей из пути не попадали в метки
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// responseWriter обертка для перехвата статуса ответа
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader перехватывает установку статуса
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// InitializeOpenTelemetry инициализирует провайдер трассировки.
// Возвращает функцию остановки провайдера.
func InitializeOpenTelemetry(serviceName, version string) (func(context.Context) error, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", version),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := tracesdk.NewTracerProvider(
		tracesdk.WithSampler(tracesdk.ParentBased(tracesdk.TraceIDRatioBased(0.1))),
		tracesdk.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
