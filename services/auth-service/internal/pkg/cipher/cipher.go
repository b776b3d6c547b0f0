// Package cipher шифрует PHI поля на границе хранения.
package cipher

import (
	"crypto/aes"
	stdcipher "crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"MedSchedulePlatform/services/auth-service/internal/domain"
)

// Sentinel возвращается вместо открытого текста, если расшифровать значение не удалось
const Sentinel = "[ENCRYPTED]"

// FieldCipher шифрует строковые атрибуты AES-256-GCM.
// Ключ выводится как SHA-256 от секрета. Шифртекст: base64(nonce || ciphertext).
type FieldCipher struct {
	aead      stdcipher.AEAD
	onFailure func(error)
}

// Option настройка FieldCipher
type Option func(*FieldCipher)

// WithFailureHook вызывается при каждой неудачной расшифровке
func WithFailureHook(hook func(error)) Option {
	return func(c *FieldCipher) {
		c.onFailure = hook
	}
}

// New создает FieldCipher. Пустой секрет недопустим.
func New(secret string, opts ...Option) (*FieldCipher, error) {
	if secret == "" {
		return nil, errors.New("field encryption secret is required")
	}

	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create aes cipher: %w", err)
	}
	aead, err := stdcipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create gcm: %w", err)
	}

	c := &FieldCipher{aead: aead, onFailure: func(error) {}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Encrypt шифрует значение. Пустая строка остается пустой.
func (c *FieldCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// EncryptPtr шифрует nullable значение. nil остается nil.
func (c *FieldCipher) EncryptPtr(plaintext *string) (*string, error) {
	if plaintext == nil {
		return nil, nil
	}
	encrypted, err := c.Encrypt(*plaintext)
	if err != nil {
		return nil, err
	}
	return &encrypted, nil
}

// Decrypt расшифровывает значение. При любой ошибке возвращает Sentinel и никогда не падает.
func (c *FieldCipher) Decrypt(ciphertext string) string {
	plaintext, err := c.DecryptStrict(ciphertext)
	if err != nil {
		c.onFailure(err)
		return Sentinel
	}
	return plaintext
}

// DecryptPtr расшифровывает nullable значение. nil остается nil.
func (c *FieldCipher) DecryptPtr(ciphertext *string) *string {
	if ciphertext == nil {
		return nil
	}
	plaintext := c.Decrypt(*ciphertext)
	return &plaintext
}

// DecryptStrict расшифровывает значение и возвращает ошибку ErrEncryptionKeyMismatch при неудаче
func (c *FieldCipher) DecryptStrict(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64: %v", domain.ErrEncryptionKeyMismatch, err)
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize+c.aead.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", domain.ErrEncryptionKeyMismatch)
	}

	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrEncryptionKeyMismatch, err)
	}
	return string(plaintext), nil
}
