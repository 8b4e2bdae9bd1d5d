package quiz

import (
	"context"
	"math/rand"

	"github.com/sinovhub/sinov-test-bot/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CODE GENERATOR
// Выдаёт короткие коды без коллизий с уже сохранёнными тестами.
// ══════════════════════════════════════════════════════════════════════════════

// CodeChecker отвечает, занят ли код. Реализуется репозиторием тестов.
type CodeChecker interface {
	CodeExists(ctx context.Context, code Code) (bool, error)
}

// maxGenerateAttempts ограничивает перебор при генерации кода.
// Вероятность коллизии при алфавите 36^6 ничтожна, поэтому лимит -
// страховка от деградации хранилища, а не от исчерпания кодов.
const maxGenerateAttempts = 100

// Generator генерирует уникальные коды тестов.
// Побочных эффектов нет: сохранение теста - отдельный шаг.
type Generator struct {
	checker CodeChecker
	rnd     *rand.Rand
}

// NewGenerator создаёт генератор с заданным источником случайности.
// rnd может быть nil - тогда используется общий источник math/rand.
func NewGenerator(checker CodeChecker, rnd *rand.Rand) *Generator {
	return &Generator{checker: checker, rnd: rnd}
}

// Generate возвращает свежий код фиксированной длины из CodeAlphabet.
// Занятые коды пропускаются; после maxGenerateAttempts неудач возвращается
// ошибка с видом ErrGenerationExhausted.
func (g *Generator) Generate(ctx context.Context) (Code, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code := g.randomCode()

		exists, err := g.checker.CodeExists(ctx, code)
		if err != nil {
			return "", shared.WrapError("quiz", "GenerateCode", shared.ErrExternalService, "code uniqueness check failed", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", shared.ErrCodesExhausted
}

// randomCode собирает код из CodeLength случайных символов алфавита.
func (g *Generator) randomCode() Code {
	buf := make([]byte, CodeLength)
	for i := range buf {
		if g.rnd != nil {
			buf[i] = CodeAlphabet[g.rnd.Intn(len(CodeAlphabet))]
		} else {
			buf[i] = CodeAlphabet[rand.Intn(len(CodeAlphabet))]
		}
	}
	return Code(buf)
}
