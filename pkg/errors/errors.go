package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error представляет кастомную ошибку с дополнительной информацией
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// ErrorCode представляет код ошибки
type ErrorCode string

// Общие коды ошибок
const (
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrValidation   ErrorCode = "VALIDATION_ERROR"
	ErrUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrForbidden    ErrorCode = "FORBIDDEN"
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
	ErrConflict     ErrorCode = "CONFLICT"

	ErrTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"
)

// Коды ошибок подсистемы доверия и доступа
const (
	ErrInvalidCredentials    ErrorCode = "INVALID_CREDENTIALS"
	ErrAccountLocked         ErrorCode = "ACCOUNT_LOCKED"
	ErrIPBlocked             ErrorCode = "IP_BLOCKED"
	ErrTokenInvalid          ErrorCode = "TOKEN_INVALID"
	ErrTokenExpired          ErrorCode = "TOKEN_EXPIRED"
	ErrSessionNotFound       ErrorCode = "SESSION_NOT_FOUND"
	ErrAlreadyBlocked        ErrorCode = "ALREADY_BLOCKED"
	ErrEncryptionKeyMismatch ErrorCode = "ENCRYPTION_KEY_MISMATCH"
	ErrAuditLogFailure       ErrorCode = "AUDIT_LOG_FAILURE"
	ErrPrincipalNotFound     ErrorCode = "PRINCIPAL_NOT_FOUND"
	ErrPatientNotFound       ErrorCode = "PATIENT_NOT_FOUND"
	ErrNotBlocked            ErrorCode = "NOT_BLOCKED"
)

// Error возвращает сообщение об ошибке
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap возвращает причину ошибки
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду
func (e *Error) Is(target error) bool {
	if targetError, ok := target.(*Error); ok {
		return e.Code == targetError.Code
	}
	return false
}

// New создает новую кастомную ошибку
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf создает ошибку с форматированным сообщением
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap оборачивает существующую ошибку в кастомную
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WithDetails добавляет детали к ошибке
func (e *Error) WithDetails(details string) *Error {
	if e == nil {
		return nil
	}
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// FromError достает *Error из цепочки ошибок.
// Неизвестные ошибки превращаются во внутреннюю ошибку.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var customErr *Error
	if stderrors.As(err, &customErr) {
		return customErr
	}
	return Wrap(err, ErrInternal, "internal error")
}

// Is обертка над errors.Is стандартной библиотеки
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As обертка над errors.As стандартной библиотеки
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// HasCode проверяет, есть ли в цепочке ошибка с указанным кодом
func HasCode(err error, code ErrorCode) bool {
	var customErr *Error
	for err != nil {
		if stderrors.As(err, &customErr) {
			if customErr.Code == code {
				return true
			}
			err = customErr.Cause
			continue
		}
		return false
	}
	return false
}

// HTTPStatus возвращает соответствующий HTTP статус для ошибки
func (e *Error) HTTPStatus() int {
	if e == nil {
		return http.StatusOK
	}

	switch e.Code {
	case ErrNotFound, ErrSessionNotFound, ErrPrincipalNotFound, ErrPatientNotFound, ErrNotBlocked:
		return http.StatusNotFound
	case ErrValidation:
		return http.StatusBadRequest
	case ErrUnauthorized, ErrInvalidCredentials, ErrTokenInvalid, ErrTokenExpired:
		return http.StatusUnauthorized
	case ErrForbidden, ErrIPBlocked, ErrAccountLocked:
		return http.StatusForbidden
	case ErrConflict, ErrAlreadyBlocked:
		return http.StatusConflict
	case ErrTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// GetUserMessage возвращает пользовательское сообщение об ошибке
func (e *Error) GetUserMessage() string {
	if e == nil {
		return ""
	}

	switch e.Code {
	case ErrNotFound:
		return "Ресурс не найден"
	case ErrValidation:
		return "Ошибка валидации данных"
	case ErrUnauthorized:
		return "Не авторизован"
	case ErrForbidden:
		return "Доступ запрещен"
	case ErrConflict:
		return "Конфликт данных (например, дубликат)"
	case ErrInvalidCredentials:
		return "Неверное имя пользователя или пароль"
	case ErrAccountLocked:
		return "Учетная запись временно заблокирована"
	case ErrIPBlocked:
		return "Доступ с этого IP адреса заблокирован"
	case ErrTokenInvalid:
		return "Недействительный токен"
	case ErrTokenExpired:
		return "Срок действия токена истек"
	case ErrSessionNotFound:
		return "Сессия не найдена"
	case ErrPrincipalNotFound:
		return "Пользователь не найден"
	case ErrPatientNotFound:
		return "Пациент не найден"
	case ErrNotBlocked:
		return "IP адрес не заблокирован"
	case ErrAlreadyBlocked:
		return "IP адрес уже заблокирован"
	case ErrTooManyRequests:
		return "Слишком много запросов"
	default:
		return "Внутренняя ошибка сервера"
	}
}

// WriteJSON отправляет JSON ответ с ошибкой.
// Ошибки без кода отдаются как INTERNAL_ERROR.
func WriteJSON(w http.ResponseWriter, err error) {
	sendErrorResponse(w, FromError(err))
}

// Middleware восстанавливает панику в обработчиках и отвечает JSON ошибкой
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}
				err := New(ErrInternal, "Internal server error").
					WithDetails(fmt.Sprintf("panic: %v", recovered))
				sendErrorResponse(w, err)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// sendErrorResponse отправляет JSON ответ с ошибкой
func sendErrorResponse(w http.ResponseWriter, err *Error) {
	response := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    err.Code,
			"message": err.GetUserMessage(),
			"details": err.Details,
		},
	}

	jsonData, jsonErr := json.Marshal(response)
	w.Header().Set("Content-Type", "application/json")
	if jsonErr != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":"INTERNAL_ERROR","message":"Internal server error"}}`))
		return
	}

	w.WriteHeader(err.HTTPStatus())
	w.Write(jsonData)
}
