package quiz

import "time"

// TestSubmission - одна попытка респондента по тесту.
// Создаётся один раз на пару (тест, респондент) и далее неизменяема:
// пути редактирования и удаления отсутствуют.
type TestSubmission struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// TestID - тест, к которому относится попытка.
	TestID string

	// UserID - респондент. На пару (TestID, UserID) допускается
	// не более одной записи; гарантируется уникальным индексом в хранилище.
	UserID string

	// Answers - отправленная строка ответов в нижнем регистре.
	// Длина равна длине ключа на момент отправки.
	Answers string

	// CorrectCount - количество совпавших позиций.
	CorrectCount int

	// TotalCount - длина ключа теста на момент отправки.
	TotalCount int

	// SubmittedAt - момент отправки.
	SubmittedAt time.Time
}

// NewSubmission создаёт попытку из результата проверки.
func NewSubmission(id, testID, userID, answers string, result Result, now time.Time) *TestSubmission {
	return &TestSubmission{
		ID:           id,
		TestID:       testID,
		UserID:       userID,
		Answers:      answers,
		CorrectCount: result.CorrectCount,
		TotalCount:   result.TotalCount,
		SubmittedAt:  now,
	}
}

// Percentage возвращает процент правильных ответов, округлённый до 0.1.
// При TotalCount == 0 возвращает 0.
func (s *TestSubmission) Percentage() float64 {
	return percentage(s.CorrectCount, s.TotalCount)
}
