// Package client HTTP клиент административного API сервиса аутентификации.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "MedSchedulePlatform/pkg/errors"
)

const userAgent = "medsched-admin/1.0"

// TokenPair ответ входа
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	SessionID    string `json:"session_id"`
	Username     string `json:"username"`
	Role         string `json:"role"`
}

// Block активная блокировка IP
type Block struct {
	IPAddress string    `json:"ip_address" yaml:"ip_address"`
	Reason    string    `json:"reason" yaml:"reason"`
	BlockedAt time.Time `json:"blocked_at" yaml:"blocked_at"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
}

// Session активная сессия
type Session struct {
	ID           string    `json:"id" yaml:"id"`
	Username     string    `json:"username" yaml:"username"`
	UserType     string    `json:"user_type" yaml:"user_type"`
	IPAddress    string    `json:"ip_address" yaml:"ip_address"`
	LoginTime    time.Time `json:"login_time" yaml:"login_time"`
	LastActivity time.Time `json:"last_activity" yaml:"last_activity"`
}

// Attempt попытка входа
type Attempt struct {
	Username    string    `json:"username" yaml:"username"`
	IPAddress   string    `json:"ip_address" yaml:"ip_address"`
	Successful  bool      `json:"successful" yaml:"successful"`
	AttemptedAt time.Time `json:"attempted_at" yaml:"attempted_at"`
}

// AdminClient HTTP клиент для /api/v1/auth и /api/v1/admin
type AdminClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewAdminClient создает клиент. token может быть пустым для входа.
func NewAdminClient(baseURL, token string, timeout time.Duration) *AdminClient {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return &AdminClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Login выполняет вход
func (c *AdminClient) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	var pair TokenPair
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", body, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Logout завершает текущую сессию
func (c *AdminClient) Logout(ctx context.Context, refreshToken string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/logout", map[string]string{"refresh_token": refreshToken}, nil)
}

// ListBlocks список активных блокировок
func (c *AdminClient) ListBlocks(ctx context.Context) ([]Block, error) {
	var resp struct {
		Blocks []Block `json:"blocks"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/admin/blocks", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Blocks, nil
}

// Block блокирует IP на hours часов
func (c *AdminClient) Block(ctx context.Context, ip, reason string, hours int) error {
	body := map[string]interface{}{"ip_address": ip, "reason": reason, "hours": hours}
	return c.do(ctx, http.MethodPost, "/api/v1/admin/blocks", body, nil)
}

// Unblock снимает блокировку IP
func (c *AdminClient) Unblock(ctx context.Context, ip string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/admin/blocks/"+url.PathEscape(ip), nil, nil)
}

// UnblockAll снимает все блокировки
func (c *AdminClient) UnblockAll(ctx context.Context) (int64, error) {
	var resp struct {
		Unblocked int64 `json:"unblocked"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/v1/admin/blocks", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Unblocked, nil
}

// ListSessions активные сессии пользователя
func (c *AdminClient) ListSessions(ctx context.Context, username string) ([]Session, error) {
	var resp struct {
		Sessions []Session `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/admin/sessions/"+url.PathEscape(username), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// RevokeSessions завершает все сессии пользователя
func (c *AdminClient) RevokeSessions(ctx context.Context, username string) (int64, error) {
	var resp struct {
		Deactivated int64 `json:"deactivated"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/v1/admin/sessions/"+url.PathEscape(username), nil, &resp); err != nil {
		return 0, err
	}
	return resp.Deactivated, nil
}

// ListAttempts последние попытки входа пользователя
func (c *AdminClient) ListAttempts(ctx context.Context, username string, limit int) ([]Attempt, error) {
	path := "/api/v1/admin/attempts/" + url.PathEscape(username)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var resp struct {
		Attempts []Attempt `json:"attempts"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Attempts, nil
}

// do выполняет запрос. Ответ с ошибкой разбирается в *errors.Error.
func (c *AdminClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error *pkgerrors.Error `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Error == nil {
		return pkgerrors.Newf(pkgerrors.ErrInternal, "server returned status %d", resp.StatusCode)
	}
	return payload.Error
}
