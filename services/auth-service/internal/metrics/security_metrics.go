// Package metrics содержит метрики решений подсистемы безопасности.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	pkgmetrics "MedSchedulePlatform/pkg/metrics"
)

// SecurityMetrics счетчики подсистемы безопасности.
// Все методы безопасны для nil получателя.
type SecurityMetrics struct {
	LoginAttempts   *prometheus.CounterVec
	IPBlocks        *prometheus.CounterVec
	SessionsSwept   prometheus.Counter
	BlocksExpired   prometheus.Counter
	AuditFailures   prometheus.Counter
	DecryptFailures prometheus.Counter
	TouchesDropped  prometheus.Counter
	EventsDropped   prometheus.Counter
	AuthRejections  *prometheus.CounterVec
}

// NewSecurityMetrics создает и регистрирует метрики в reg
func NewSecurityMetrics(namespace string, reg prometheus.Registerer) *SecurityMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	counter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "security",
			Name:      name,
			Help:      help,
		})
		return pkgmetrics.MustRegister(reg, c).(prometheus.Counter)
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "security",
			Name:      name,
			Help:      help,
		}, labels)
		return pkgmetrics.MustRegister(reg, c).(*prometheus.CounterVec)
	}

	return &SecurityMetrics{
		LoginAttempts:   counterVec("login_attempts_total", "Login attempts by result", "result"),
		IPBlocks:        counterVec("ip_blocks_total", "IP blocks created by source", "source"),
		SessionsSwept:   counter("sessions_swept_total", "Sessions deactivated by inactivity sweep"),
		BlocksExpired:   counter("ip_blocks_expired_total", "IP blocks deactivated by cleanup"),
		AuditFailures:   counter("audit_failures_total", "PHI audit entries that failed to persist"),
		DecryptFailures: counter("decrypt_failures_total", "PHI field values that failed to decrypt"),
		TouchesDropped:  counter("session_touches_dropped_total", "Session activity updates dropped because the queue was full"),
		EventsDropped:   counter("events_dropped_total", "Security events dropped before reaching the broker"),
		AuthRejections:  counterVec("auth_rejections_total", "Requests rejected at the security boundary", "reason"),
	}
}

// LoginAttempt учитывает попытку входа. result: success, failure, locked, ip_blocked
func (m *SecurityMetrics) LoginAttempt(result string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(result).Inc()
}

// IPBlocked учитывает созданную блокировку. source: auto, manual
func (m *SecurityMetrics) IPBlocked(source string) {
	if m == nil {
		return
	}
	m.IPBlocks.WithLabelValues(source).Inc()
}

// Swept учитывает сессии, деактивированные по неактивности
func (m *SecurityMetrics) Swept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsSwept.Add(float64(n))
}

// Expired учитывает снятые по сроку блокировки
func (m *SecurityMetrics) Expired(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.BlocksExpired.Add(float64(n))
}

func (m *SecurityMetrics) AuditFailed() {
	if m == nil {
		return
	}
	m.AuditFailures.Inc()
}

func (m *SecurityMetrics) DecryptFailed() {
	if m == nil {
		return
	}
	m.DecryptFailures.Inc()
}

func (m *SecurityMetrics) TouchDropped() {
	if m == nil {
		return
	}
	m.TouchesDropped.Inc()
}

func (m *SecurityMetrics) EventDropped() {
	if m == nil {
		return
	}
	m.EventsDropped.Inc()
}

// Rejected учитывает отказ на границе. reason: ip_blocked, token_invalid, token_expired, session_inactive, forbidden
func (m *SecurityMetrics) Rejected(reason string) {
	if m == nil {
		return
	}
	m.AuthRejections.WithLabelValues(reason).Inc()
}
