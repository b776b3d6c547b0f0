// Package password проверяет учетные данные врачей и пациентов.
package password

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Hasher хеширует и проверяет пароли
type Hasher interface {
	Hash(password string) (string, error)
	Check(password, hash string) bool
}

// BcryptHasher реализация Hasher с использованием bcrypt
type BcryptHasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewBcryptHasher создает новый BcryptHasher
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash хеширует пароль с использованием bcrypt
func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Check проверяет, соответствует ли пароль хешу.
// Пустой хеш (неизвестный пользователь) сверяется с фиктивным хешем той же
// стоимости и никогда не совпадает: время ответа не выдает, существует ли логин.
func (h *BcryptHasher) Check(password, hash string) bool {
	if hash == "" {
		bcrypt.CompareHashAndPassword(h.dummyHash(), []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (h *BcryptHasher) dummyHash() []byte {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("unknown-principal"), h.cost)
	})
	return h.dummy
}
