package drillengine

import (
	"math"
	"strconv"

	"github.com/yourusername/jtrainer-api/internal/domain/entity"
)

// Stats — агрегаты по последовательности ответов одной тренировки
type Stats struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
	Pass      int `json:"pass"`
	Seen      int `json:"seen"`

	// Accuracy — процент правильных ответов от сыгранных, округлён до 2 знаков.
	// 0 при Seen == 0 (деления на ноль не бывает).
	Accuracy float64 `json:"accuracy"`

	// CoryatScore — сумма нормализованных стоимостей: +за correct, -за incorrect,
	// pass даёт 0. Daily double и ставки не учитываются.
	CoryatScore int `json:"coryat_score"`

	// MaxPossibleScore — сумма стоимостей всех сыгранных клю
	// (счет при стопроцентно правильных ответах).
	MaxPossibleScore int `json:"max_possible_score"`
}

// ComputeStats пересчитывает агрегаты из полной последовательности ответов.
// Пересчет всегда полный, без инкрементальных обновлений: результат обязан
// точно восстанавливаться из журнала ответов, а ответов в тренировке десятки,
// так что стоимость пересчета не играет роли.
func ComputeStats(responses []entity.DrillClue) Stats {
	var s Stats
	for _, dc := range responses {
		value := dc.Clue.NormalizedValueOrZero()
		switch dc.Result {
		case entity.VerdictCorrect:
			s.Correct++
			s.CoryatScore += value
		case entity.VerdictIncorrect:
			s.Incorrect++
			s.CoryatScore -= value
		case entity.VerdictPass:
			s.Pass++
		}
		s.MaxPossibleScore += value
	}

	s.Seen = s.Correct + s.Incorrect + s.Pass
	if s.Seen > 0 {
		s.Accuracy = round2(float64(s.Correct) / float64(s.Seen) * 100)
	}
	return s
}

// StatsFromCounts восстанавливает Stats из кешированных счётчиков тренировки
// (для отдачи списков без загрузки журнала ответов)
func StatsFromCounts(correct, incorrect, pass, coryatScore, maxPossibleScore int) Stats {
	s := Stats{
		Correct:          correct,
		Incorrect:        incorrect,
		Pass:             pass,
		Seen:             correct + incorrect + pass,
		CoryatScore:      coryatScore,
		MaxPossibleScore: maxPossibleScore,
	}
	if s.Seen > 0 {
		s.Accuracy = round2(float64(s.Correct) / float64(s.Seen) * 100)
	}
	return s
}

// AccuracyString форматирует точность как процент: "0%" при нуле сыгранных,
// иначе с двумя знаками после запятой ("66.67%")
func (s Stats) AccuracyString() string {
	if s.Seen == 0 {
		return "0%"
	}
	return strconv.FormatFloat(s.Accuracy, 'f', 2, 64) + "%"
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
