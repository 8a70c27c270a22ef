package drillengine

import (
	"regexp"
	"strings"

	"github.com/yourusername/jtrainer-api/internal/domain/entity"
)

// Регулярные выражения нормализации ответа.
// leadingInterrogative срезает вопросительную конструкцию в начале
// канонического ответа ("What is ...", "Who is ..." и т.д.).
var (
	leadingInterrogative = regexp.MustCompile(`(?i)^\s*(what|who|where|when|why)\s+is\s+`)
	nonAlphanumeric      = regexp.MustCompile(`[^a-z0-9\s]+`)
)

// Judge выносит вердикт по свободному текстовому ответу на клю.
// Пороговые значения берутся из Config.
type Judge struct {
	cfg *Config
}

// NewJudge создает новый судья ответов
func NewJudge(cfg *Config) *Judge {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Judge{cfg: cfg}
}

// Judge сравнивает ответ с каноническим и возвращает вердикт.
// Порядок решения (срабатывает первое подходящее правило):
//  1. нет времени ответа или базз-ин позже порога — pass;
//  2. пустой ответ либо явный сигнал "pass"/"p" — pass;
//  3. нечеткое сравнение с каноническим ответом — correct/incorrect.
func (j *Judge) Judge(response *string, responseTimeSec *float64, canonicalAnswer string) entity.Verdict {
	// 1. Нет базз-ина: время отсутствует или превышает порог
	if responseTimeSec == nil || *responseTimeSec > j.cfg.MaxBuzzInTimeSec {
		return entity.VerdictPass
	}

	// 2. Явный пас: пустой ответ или токен "pass"/"p"
	var raw string
	if response != nil {
		raw = strings.TrimSpace(*response)
	}
	lowered := strings.ToLower(raw)
	if lowered == "" || lowered == "pass" || lowered == "p" {
		return entity.VerdictPass
	}

	// 3. Нечеткое сравнение
	if Matches(raw, canonicalAnswer) {
		return entity.VerdictCorrect
	}
	return entity.VerdictIncorrect
}

// Matches сравнивает ответ пользователя с каноническим ответом клю.
// Оба текста нормализуются одинаково, совпадением считается вхождение
// одной нормализованной строки в другую (в любую сторону). Это намеренно
// снисходительная проверка: "Jordan" засчитывается против "the Jordan",
// а ответ, набранный целиком с вопросительной конструкцией, тоже проходит.
func Matches(response, canonicalAnswer string) bool {
	answer := normalizeText(answerCore(canonicalAnswer))
	if answer == "" {
		// Пустой канонический ответ не матчится ни с чем
		return false
	}

	resp := normalizeText(response)
	if resp == "" {
		return false
	}

	return strings.Contains(resp, answer) || strings.Contains(answer, resp)
}

// answerCore срезает с канонического ответа вопросительную конструкцию
// в начале и вопросительный знак в конце: "What is the Jordan?" -> "the Jordan"
func answerCore(canonicalAnswer string) string {
	core := leadingInterrogative.ReplaceAllString(canonicalAnswer, "")
	core = strings.TrimSpace(core)
	core = strings.TrimSuffix(core, "?")
	return core
}

// normalizeText приводит текст к нижнему регистру, убирает всё,
// кроме латиницы, цифр и пробелов, и срезает пробелы по краям
func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
