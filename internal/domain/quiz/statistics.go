package quiz

import "sort"

// ══════════════════════════════════════════════════════════════════════════════
// STATISTICS AGGREGATOR
// Сводит все попытки по тесту в статистику по вопросам и рейтинг участников.
// ══════════════════════════════════════════════════════════════════════════════

// QuestionStat - сложность одного вопроса.
type QuestionStat struct {
	// Number - номер вопроса, начиная с 1.
	Number int

	// CorrectCount - сколько участников ответили верно.
	CorrectCount int

	// Percentage - доля верных ответов среди всех попыток,
	// округлённая до 0.1.
	Percentage float64
}

// LeaderboardEntry - одна строка рейтинга.
type LeaderboardEntry struct {
	// DisplayName - имя участника: полное имя, иначе @username,
	// иначе числовой Telegram ID.
	DisplayName string

	// UserID - внутренний ID участника.
	UserID string

	CorrectCount int
	TotalCount   int
	Percentage   float64
}

// Statistics - агрегированная статистика теста.
type Statistics struct {
	// TotalSubmissions - количество попыток.
	TotalSubmissions int

	// Questions - статистика по каждому вопросу, позиции 1..N.
	// Пуста, если попыток нет.
	Questions []QuestionStat

	// Easiest - номер (с 1) самого лёгкого вопроса: максимум верных
	// ответов, при равенстве - первый по порядку. nil без попыток.
	Easiest *int

	// Hardest - номер (с 1) самого трудного вопроса: минимум верных
	// ответов, при равенстве - первый по порядку. nil без попыток.
	Hardest *int

	// Leaderboard - попытки по убыванию CorrectCount. Сортировка
	// стабильная: при равенстве сохраняется порядок выборки из хранилища.
	Leaderboard []LeaderboardEntry
}

// NameResolver возвращает отображаемое имя участника по его внутреннему ID.
type NameResolver func(userID string) string

// Aggregate вычисляет статистику теста по всем его попыткам.
// submissions передаются в порядке выборки из хранилища (по времени отправки).
// При нуле попыток возвращается явный пустой результат: вызывающая сторона
// обязана показать "ещё никто не решал", а не делить на ноль.
func Aggregate(test *Test, submissions []*TestSubmission, resolve NameResolver) *Statistics {
	if len(submissions) == 0 {
		return &Statistics{}
	}

	total := test.TotalQuestions()
	key := test.AnswerKey

	questionCorrect := make([]int, total)
	for _, sub := range submissions {
		r := Score(key, sub.Answers)
		for i, ok := range r.PerQuestion {
			if ok {
				questionCorrect[i]++
			}
		}
	}

	stats := &Statistics{
		TotalSubmissions: len(submissions),
		Questions:        make([]QuestionStat, total),
	}

	for i, correct := range questionCorrect {
		stats.Questions[i] = QuestionStat{
			Number:       i + 1,
			CorrectCount: correct,
			Percentage:   percentage(correct, len(submissions)),
		}
	}

	// Первый максимум и первый минимум в порядке сканирования:
	// намеренный способ разрешения ничьих, а не случайность.
	easiest, hardest := 0, 0
	for i := 1; i < total; i++ {
		if questionCorrect[i] > questionCorrect[easiest] {
			easiest = i
		}
		if questionCorrect[i] < questionCorrect[hardest] {
			hardest = i
		}
	}
	easiestNum, hardestNum := easiest+1, hardest+1
	stats.Easiest = &easiestNum
	stats.Hardest = &hardestNum

	stats.Leaderboard = make([]LeaderboardEntry, 0, len(submissions))
	for _, sub := range submissions {
		name := ""
		if resolve != nil {
			name = resolve(sub.UserID)
		}
		stats.Leaderboard = append(stats.Leaderboard, LeaderboardEntry{
			DisplayName:  name,
			UserID:       sub.UserID,
			CorrectCount: sub.CorrectCount,
			TotalCount:   sub.TotalCount,
			Percentage:   sub.Percentage(),
		})
	}

	sort.SliceStable(stats.Leaderboard, func(i, j int) bool {
		return stats.Leaderboard[i].CorrectCount > stats.Leaderboard[j].CorrectCount
	})

	return stats
}
