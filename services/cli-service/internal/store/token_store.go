// Package store хранит токены администратора между вызовами CLI.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// TokenInfo содержит информацию о токенах
type TokenInfo struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Username     string    `json:"username"`
	Server       string    `json:"server"`
}

// TokenStore управляет хранением токенов
type TokenStore struct {
	tokensPath string
}

// NewTokenStore создает хранилище в $MEDSCHED_ADMIN_HOME или домашнем каталоге
func NewTokenStore() (*TokenStore, error) {
	home := os.Getenv("MEDSCHED_ADMIN_HOME")
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
	}

	dir := filepath.Join(home, ".medsched-admin")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	return &TokenStore{tokensPath: filepath.Join(dir, "tokens")}, nil
}

// SaveTokens сохраняет токены в файл с правами 0600
func (ts *TokenStore) SaveTokens(tokenInfo *TokenInfo) error {
	data, err := json.MarshalIndent(tokenInfo, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tokens: %w", err)
	}

	if err := os.WriteFile(ts.tokensPath, data, 0600); err != nil {
		return fmt.Errorf("failed to save tokens: %w", err)
	}
	return nil
}

// LoadTokens загружает токены из файла
func (ts *TokenStore) LoadTokens() (*TokenInfo, error) {
	data, err := os.ReadFile(ts.tokensPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("not logged in")
		}
		return nil, fmt.Errorf("failed to read tokens: %w", err)
	}

	var tokenInfo TokenInfo
	if err := json.Unmarshal(data, &tokenInfo); err != nil {
		return nil, fmt.Errorf("failed to decode tokens: %w", err)
	}
	return &tokenInfo, nil
}

// ClearTokens удаляет файл токенов
func (ts *TokenStore) ClearTokens() error {
	if err := os.Remove(ts.tokensPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove tokens: %w", err)
	}
	return nil
}

// GetAccessToken возвращает access токен или пустую строку
func (ts *TokenStore) GetAccessToken() string {
	if tokenInfo, err := ts.LoadTokens(); err == nil {
		return tokenInfo.AccessToken
	}
	return ""
}
