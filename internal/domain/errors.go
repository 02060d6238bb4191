package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation: базовая ошибка для всех нарушений формата входных данных.
	ErrValidation = errors.New("validation failed")
	// ErrLessonNotFound возвращается, если урок с указанным идентификатором не найден.
	ErrLessonNotFound = errors.New("lesson not found")
	// ErrUserNotFound возвращается, если пользователь с таким email не зарегистрирован.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken сигнализирует о попытке повторной регистрации email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidPassword: пароль не совпал с сохранённым.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrEmptyPatch: в запросе на обновление нет ни одного поддерживаемого поля.
	ErrEmptyPatch = errors.New("no updatable fields provided")
)

// ValidationError описывает некорректное или отсутствующее поле запроса.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError создаёт ошибку валидации для конкретного поля.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrValidation).
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IsValidation проверяет, относится ли ошибка к ошибкам валидации.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsCredentialsError проверяет, связана ли ошибка с регистрацией или входом пользователя.
func IsCredentialsError(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrInvalidPassword) ||
		errors.Is(err, ErrEmailTaken)
}
