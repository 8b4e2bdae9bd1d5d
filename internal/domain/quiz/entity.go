// Package quiz содержит доменную модель теста: сущности Test и TestSubmission,
// генератор кодов, движок проверки ответов и агрегатор статистики.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package quiz

import (
	"strings"
	"time"
	"unicode"

	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Code представляет короткий уникальный код теста.
type Code string

// CodeLength - фиксированная длина кода теста.
const CodeLength = 6

// CodeAlphabet - алфавит кода: заглавные латинские буквы и цифры.
const CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// IsValid проверяет длину и алфавит кода.
func (c Code) IsValid() bool {
	if len(c) != CodeLength {
		return false
	}
	for _, r := range c {
		if !strings.ContainsRune(CodeAlphabet, r) {
			return false
		}
	}
	return true
}

// NormalizeCode приводит пользовательский ввод к каноническому виду кода.
func NormalizeCode(raw string) Code {
	return Code(strings.ToUpper(strings.TrimSpace(raw)))
}

// String возвращает строковое представление кода.
func (c Code) String() string {
	return string(c)
}

// AnswerKey представляет эталонную строку ответов теста.
// Хранится в нижнем регистре, по одному символу на вопрос.
type AnswerKey string

// NewAnswerKey нормализует и валидирует строку правильных ответов.
// Возвращает ErrEmptyValue для пустой строки и ErrInvalidFormat,
// если строка содержит не только буквы.
func NewAnswerKey(raw string) (AnswerKey, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", shared.NewDomainError("quiz", "NewAnswerKey", shared.ErrEmptyValue, "answer key is empty")
	}
	if !isAlphabetic(s) {
		return "", shared.ErrInvalidAnswerString
	}
	return AnswerKey(s), nil
}

// Len возвращает количество вопросов в тесте.
func (k AnswerKey) Len() int {
	return len(k)
}

// String возвращает строковое представление ключа.
func (k AnswerKey) String() string {
	return string(k)
}

// isAlphabetic возвращает true, если строка состоит только из букв.
func isAlphabetic(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: TEST
// ══════════════════════════════════════════════════════════════════════════════

// Test - центральная сущность: набор вопросов, представленный только
// строкой правильных ответов и коротким кодом для распространения.
type Test struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// Code - короткий код для распространения. Уникален среди всех тестов.
	Code Code

	// AnswerKey - эталонные ответы. Неизменяемы после создания.
	AnswerKey AnswerKey

	// CreatorID - внутренний ID пользователя, создавшего тест.
	CreatorID string

	// IsActive - true, пока тест принимает ответы.
	IsActive bool

	// CreatedAt - момент создания.
	CreatedAt time.Time

	// EndedAt - момент завершения. nil, пока тест активен.
	EndedAt *time.Time
}

// NewTest создаёт активный тест с заданным кодом и ключом ответов.
func NewTest(id string, code Code, key AnswerKey, creatorID string, now time.Time) *Test {
	return &Test{
		ID:        id,
		Code:      code,
		AnswerKey: key,
		CreatorID: creatorID,
		IsActive:  true,
		CreatedAt: now,
	}
}

// TotalQuestions возвращает количество вопросов.
func (t *Test) TotalQuestions() int {
	return t.AnswerKey.Len()
}

// End переводит тест в терминальное состояние Ended.
// Повторный вызов возвращает ErrTestAlreadyEnded: переход Active→Ended
// происходит ровно один раз, ended_at выставляется вместе с флагом.
func (t *Test) End(now time.Time) error {
	if !t.IsActive {
		return shared.ErrTestAlreadyEnded
	}
	t.IsActive = false
	ended := now
	t.EndedAt = &ended
	return nil
}

// CanBeManagedBy возвращает true, если actor может завершать тест и
// смотреть его статистику: создатель либо привилегированный администратор.
func (t *Test) CanBeManagedBy(actorID string, actorIsAdmin bool) bool {
	return t.CreatorID == actorID || actorIsAdmin
}
