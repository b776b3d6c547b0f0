// Package validation проверяет входные данные HTTP запросов.
// Все ошибки имеют код VALIDATION_ERROR.
package validation

import (
	"net"
	"strings"

	"MedSchedulePlatform/pkg/errors"
)

// Validator предоставляет общие функции валидации
type Validator struct{}

// NewValidator создает новый Validator
func NewValidator() *Validator {
	return &Validator{}
}

func invalid(format string, args ...interface{}) *errors.Error {
	return errors.Newf(errors.ErrValidation, format, args...)
}

// ValidateRequiredFields проверяет, что обязательные поля заполнены.
// requiredFields отображает ключ поля в имя для сообщения.
func (v *Validator) ValidateRequiredFields(fields map[string]string, requiredFields map[string]string) error {
	for field, fieldName := range requiredFields {
		if strings.TrimSpace(fields[field]) == "" {
			return invalid("%s is required", fieldName)
		}
	}
	return nil
}

// ValidateIP проверяет IPv4 или IPv6 адрес
func (v *Validator) ValidateIP(ip, fieldName string) error {
	if ip == "" {
		return invalid("%s is required", fieldName)
	}
	if net.ParseIP(ip) == nil {
		return invalid("invalid %s: %s", fieldName, ip)
	}
	return nil
}

// ValidateRange проверяет, что значение лежит в [min, max]
func (v *Validator) ValidateRange(value, min, max int, fieldName string) error {
	if value < min {
		return invalid("%s must be at least %d, got: %d", fieldName, min, value)
	}
	if value > max {
		return invalid("%s must not exceed %d, got: %d", fieldName, max, value)
	}
	return nil
}

// ValidateStringLength проверяет длину строки
func (v *Validator) ValidateStringLength(value, fieldName string, min, max int) error {
	length := len(value)
	if length < min {
		return invalid("%s must be at least %d characters, got: %d", fieldName, min, length)
	}
	if length > max {
		return invalid("%s must not exceed %d characters, got: %d", fieldName, max, length)
	}
	return nil
}
