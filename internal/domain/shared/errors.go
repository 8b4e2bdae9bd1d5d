// Package shared содержит общие доменные типы и ошибки, используемые
// всеми доменными пакетами. Пакет не имеет внешних зависимостей.
package shared

import (
	"errors"
	"fmt"
)

// Базовые доменные ошибки для проверки через errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation    = errors.New("validation error")
	ErrInvalidFormat = errors.New("invalid format")
	ErrEmptyValue    = errors.New("value cannot be empty")

	// State errors
	ErrAlreadyEnded     = errors.New("test already ended")
	ErrAlreadySubmitted = errors.New("already submitted")
	ErrSelfSubmission   = errors.New("creator cannot submit to own test")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")

	// Generator errors
	ErrGenerationExhausted = errors.New("code generation exhausted")

	// External service errors
	ErrExternalService = errors.New("external service error")
	ErrDeliveryFailure = errors.New("delivery failure")
)

// DomainError представляет доменную ошибку с контекстом операции.
type DomainError struct {
	Domain  string // например "quiz", "identity", "channel"
	Op      string // операция, которая завершилась ошибкой
	Kind    error  // базовая ошибка для errors.Is()
	Message string // человекочитаемое сообщение
	Err     error  // исходная ошибка (опционально)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError создаёт новую доменную ошибку.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError оборачивает существующую ошибку доменным контекстом.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Quiz domain errors
var (
	ErrTestNotFound         = NewDomainError("quiz", "Find", ErrNotFound, "test not found")
	ErrTestAlreadyExists    = NewDomainError("quiz", "Create", ErrAlreadyExists, "test code already taken")
	ErrTestAlreadyEnded     = NewDomainError("quiz", "End", ErrAlreadyEnded, "test already ended")
	ErrSubmissionExists     = NewDomainError("quiz", "Submit", ErrAlreadySubmitted, "submission already exists for this test and user")
	ErrOwnTestSubmission    = NewDomainError("quiz", "Submit", ErrSelfSubmission, "creator cannot solve own test")
	ErrInvalidAnswerString  = NewDomainError("quiz", "Validate", ErrInvalidFormat, "answers must be alphabetic")
	ErrAnswerLengthMismatch = NewDomainError("quiz", "Validate", ErrInvalidFormat, "answer length does not match key length")
	ErrCodesExhausted       = NewDomainError("quiz", "GenerateCode", ErrGenerationExhausted, "could not generate a unique code")
)

// Identity domain errors
var (
	ErrUserNotFound      = NewDomainError("identity", "Find", ErrNotFound, "user not found")
	ErrUserAlreadyExists = NewDomainError("identity", "Create", ErrAlreadyExists, "user already exists")
	ErrNotPrivileged     = NewDomainError("identity", "Authorize", ErrUnauthorized, "actor is neither creator nor admin")
)

// Channel domain errors
var (
	ErrChannelNotFound      = NewDomainError("channel", "Find", ErrNotFound, "channel not found")
	ErrChannelAlreadyExists = NewDomainError("channel", "Create", ErrAlreadyExists, "channel already registered")
)

// External boundary errors
var (
	ErrTelegramAPIFailed = NewDomainError("telegram", "Send", ErrExternalService, "Telegram API request failed")
	ErrNotifyFailed      = NewDomainError("telegram", "Notify", ErrDeliveryFailure, "best-effort notification failed")
)

// IsNotFound проверяет, что ошибка - "не найдено".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation проверяет, что ошибка - ошибка валидации ввода.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrEmptyValue)
}

// IsUserFacing возвращает true для ошибок, которые показываются пользователю
// как отказ, а не логируются как сбой сервиса.
func IsUserFacing(err error) bool {
	return IsNotFound(err) ||
		IsValidation(err) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrAlreadyEnded) ||
		errors.Is(err, ErrAlreadySubmitted) ||
		errors.Is(err, ErrSelfSubmission)
}
