package quiz

import (
	"math"
	"strings"

	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SCORING ENGINE
// Посимвольное сравнение отправленных ответов с эталонным ключом.
// ══════════════════════════════════════════════════════════════════════════════

// Result - результат проверки одной попытки.
type Result struct {
	// PerQuestion[i] == true, если ответ на вопрос i совпал с ключом.
	// Длина всегда равна TotalCount.
	PerQuestion []bool

	// CorrectCount - количество true в PerQuestion.
	CorrectCount int

	// TotalCount - длина ключа.
	TotalCount int
}

// Percentage возвращает процент правильных ответов, округлённый до 0.1.
func (r Result) Percentage() float64 {
	return percentage(r.CorrectCount, r.TotalCount)
}

// Score сравнивает отправленную строку с ключом позиция за позицией.
// Сравнение регистронезависимое: обе строки приводятся к нижнему регистру.
// Позиция i засчитывается, если i < len(submitted) и символы совпали.
// Если submitted короче ключа, хвостовые позиции считаются неверными,
// а не ошибкой: вызывающий код отклоняет несовпадение длины до проверки,
// но движок обязан корректно обработать и этот случай.
func Score(key AnswerKey, submitted string) Result {
	correct := strings.ToLower(strings.TrimSpace(key.String()))
	answers := strings.ToLower(strings.TrimSpace(submitted))

	total := len(correct)
	result := Result{
		PerQuestion: make([]bool, total),
		TotalCount:  total,
	}

	for i := 0; i < total; i++ {
		if i < len(answers) && correct[i] == answers[i] {
			result.PerQuestion[i] = true
			result.CorrectCount++
		}
	}

	return result
}

// ValidateAnswerString выполняет валидацию пользовательского ввода перед
// проверкой: только буквы и длина, точно равная количеству вопросов.
// Это контракт вызывающей стороны, а не движка Score.
func ValidateAnswerString(raw string, totalQuestions int) (string, error) {
	answers := strings.ToLower(strings.TrimSpace(raw))
	if !isAlphabetic(answers) {
		return "", shared.ErrInvalidAnswerString
	}
	if len(answers) != totalQuestions {
		return "", shared.ErrAnswerLengthMismatch
	}
	return answers, nil
}

// percentage вычисляет round(correct/total*100, 1); 0 при total == 0.
func percentage(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*1000) / 10
}
