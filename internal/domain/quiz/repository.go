package quiz

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Контракты хранилища. Реализации - в infrastructure/persistence.
// Уникальность кода и пары (тест, респондент) гарантируется уникальными
// индексами хранилища; проверки в памяти - лишь оптимизация.
// ══════════════════════════════════════════════════════════════════════════════

// TestRepository определяет операции над тестами.
type TestRepository interface {
	// Create сохраняет новый тест.
	// Возвращает ErrTestAlreadyExists при занятом коде.
	Create(ctx context.Context, test *Test) error

	// GetByID возвращает тест по внутреннему идентификатору.
	// Возвращает ErrTestNotFound, если тест не найден.
	GetByID(ctx context.Context, id string) (*Test, error)

	// GetByCode возвращает тест по коду.
	// Возвращает ErrTestNotFound, если кода нет.
	GetByCode(ctx context.Context, code Code) (*Test, error)

	// GetByCreator возвращает тесты пользователя, новые первыми.
	GetByCreator(ctx context.Context, creatorID string) ([]*Test, error)

	// End атомарно переводит активный тест в Ended (флаг и ended_at
	// одним условным UPDATE). Возвращает ErrTestAlreadyEnded, если тест
	// уже завершён, и ErrTestNotFound, если кода нет.
	End(ctx context.Context, code Code) (*Test, error)

	// CodeExists реализует CodeChecker для генератора кодов.
	CodeExists(ctx context.Context, code Code) (bool, error)

	// Count возвращает общее количество тестов.
	Count(ctx context.Context) (int, error)

	// CountActive возвращает количество активных тестов.
	CountActive(ctx context.Context) (int, error)

	// GetRecent возвращает последние созданные тесты.
	GetRecent(ctx context.Context, limit int) ([]*Test, error)
}

// SubmissionRepository определяет операции над попытками.
type SubmissionRepository interface {
	// Create сохраняет новую попытку.
	// Возвращает ErrSubmissionExists, если пара (тест, респондент)
	// уже занята - вызывающая сторона возвращает прежний результат.
	Create(ctx context.Context, sub *TestSubmission) error

	// GetByTestAndUser возвращает попытку респондента по тесту.
	// Возвращает ErrNotFound через доменную ошибку, если попытки нет.
	GetByTestAndUser(ctx context.Context, testID, userID string) (*TestSubmission, error)

	// GetByTest возвращает все попытки теста в порядке отправки.
	GetByTest(ctx context.Context, testID string) ([]*TestSubmission, error)

	// GetByUser возвращает попытки респондента, новые первыми.
	GetByUser(ctx context.Context, userID string) ([]*TestSubmission, error)

	// CountByTest возвращает количество попыток по тесту.
	CountByTest(ctx context.Context, testID string) (int, error)
}
