package hash

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// opaqueTokenBytes длина случайной части refresh токена
const opaqueTokenBytes = 32

// TokenHasher хеширует токены с использованием SHA256
type TokenHasher struct{}

// NewTokenHasher создает новый экземпляр TokenHasher
func NewTokenHasher() *TokenHasher {
	return &TokenHasher{}
}

// Hash возвращает hex SHA256 от токена
func (h *TokenHasher) Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Verify проверяет токен против хеша за постоянное время
func (h *TokenHasher) Verify(token, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(h.Hash(token)), []byte(hash)) == 1
}

// NewOpaqueToken генерирует случайный токен в base64url без паддинга
func (h *TokenHasher) NewOpaqueToken() (string, error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
