package drillengine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/jtrainer-api/internal/domain/entity"
)

func judgedClue(value int, result entity.Verdict) entity.DrillClue {
	return entity.DrillClue{
		Clue:   entity.Clue{NormalizedValue: &value},
		Result: result,
	}
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil)

	assert.Equal(t, 0, stats.Seen)
	assert.Equal(t, 0.0, stats.Accuracy)
	assert.Equal(t, "0%", stats.AccuracyString(), "Без сыгранных клю точность отображается как 0%")
}

func TestComputeStats_CoryatScoring(t *testing.T) {
	// correct даёт +стоимость, incorrect -стоимость, pass ничего
	responses := []entity.DrillClue{
		judgedClue(200, entity.VerdictCorrect),
		judgedClue(1000, entity.VerdictIncorrect),
		judgedClue(600, entity.VerdictPass),
	}

	stats := ComputeStats(responses)

	assert.Equal(t, 1, stats.Correct)
	assert.Equal(t, 1, stats.Incorrect)
	assert.Equal(t, 1, stats.Pass)
	assert.Equal(t, 3, stats.Seen, "Seen — сумма всех трёх исходов")
	assert.Equal(t, -800, stats.CoryatScore)
	assert.Equal(t, 1800, stats.MaxPossibleScore, "Максимум — сумма стоимостей всех сыгранных клю")
}

func TestComputeStats_AccuracyRounding(t *testing.T) {
	// 2 из 3 — 66.666... округляется до 66.67
	responses := []entity.DrillClue{
		judgedClue(200, entity.VerdictCorrect),
		judgedClue(400, entity.VerdictCorrect),
		judgedClue(600, entity.VerdictIncorrect),
	}

	stats := ComputeStats(responses)

	assert.Equal(t, 66.67, stats.Accuracy)
	assert.Equal(t, "66.67%", stats.AccuracyString())
}

func TestComputeStats_MissingValueCountsAsZero(t *testing.T) {
	// Клю без стоимости участвует в счётчиках, но не в очках
	responses := []entity.DrillClue{
		{Clue: entity.Clue{}, Result: entity.VerdictCorrect},
		judgedClue(400, entity.VerdictCorrect),
	}

	stats := ComputeStats(responses)

	assert.Equal(t, 2, stats.Correct)
	assert.Equal(t, 400, stats.CoryatScore)
	assert.Equal(t, 400, stats.MaxPossibleScore)
}

func TestStatsFromCounts(t *testing.T) {
	stats := StatsFromCounts(2, 1, 1, 600, 2000)

	assert.Equal(t, 4, stats.Seen)
	assert.Equal(t, 50.0, stats.Accuracy)
	assert.Equal(t, "50.00%", stats.AccuracyString())
	assert.Equal(t, 600, stats.CoryatScore)
	assert.Equal(t, 2000, stats.MaxPossibleScore)

	empty := StatsFromCounts(0, 0, 0, 0, 0)
	assert.Equal(t, "0%", empty.AccuracyString())
}
