// Package clientip определяет IP клиента по заголовкам прокси и адресу соединения.
package clientip

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// FromRequest возвращает IP клиента: первый адрес X-Forwarded-For,
// затем X-Real-IP, затем хост из RemoteAddr
func FromRequest(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// IsLoopback сообщает, что адрес локальный (127.0.0.0/8, ::1, localhost)
func IsLoopback(ip string) bool {
	if ip == "localhost" {
		return true
	}
	parsed := net.ParseIP(ip)
	return parsed != nil && parsed.IsLoopback()
}

type ctxKey struct{}

// WithIP кладет IP клиента в контекст
func WithIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKey{}, ip)
}

// FromContext возвращает IP клиента из контекста или пустую строку
func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(ctxKey{}).(string)
	return ip
}
