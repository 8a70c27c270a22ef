package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerdict_String(t *testing.T) {
	assert.Equal(t, "correct", VerdictCorrect.String())
	assert.Equal(t, "incorrect", VerdictIncorrect.String())
	assert.Equal(t, "pass", VerdictPass.String())
	assert.Equal(t, "unknown", Verdict(42).String())
}

func TestVerdict_IsValid(t *testing.T) {
	assert.True(t, VerdictCorrect.IsValid())
	assert.True(t, VerdictIncorrect.IsValid())
	assert.True(t, VerdictPass.IsValid())
	assert.False(t, Verdict(2).IsValid())
	assert.False(t, Verdict(-2).IsValid())
}

func TestVerdict_Scan(t *testing.T) {
	var v Verdict

	// Корректные значения из smallint
	require.NoError(t, v.Scan(int64(-1)))
	assert.Equal(t, VerdictIncorrect, v)
	require.NoError(t, v.Scan(int64(1)))
	assert.Equal(t, VerdictCorrect, v)

	// Значение вне закрытого набора отклоняется
	assert.Error(t, v.Scan(int64(5)), "Вердикт вне набора -1/0/1 не должен читаться")

	// Неожиданный тип отклоняется
	assert.Error(t, v.Scan("correct"))
}

func TestVerdict_Value(t *testing.T) {
	val, err := VerdictCorrect.Value()
	require.NoError(t, err)
	assert.Equal(t, int64(1), val)

	_, err = Verdict(7).Value()
	assert.Error(t, err, "Невалидный вердикт не должен записываться в базу")
}

func TestVerdict_MarshalJSON(t *testing.T) {
	data, err := VerdictIncorrect.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"incorrect"`, string(data))
}

func TestDrillClue_IsUnanswered(t *testing.T) {
	empty := ""
	spaces := "   "
	answered := "jordan"

	assert.True(t, (&DrillClue{Response: nil}).IsUnanswered())
	assert.True(t, (&DrillClue{Response: &empty}).IsUnanswered())
	assert.True(t, (&DrillClue{Response: &spaces}).IsUnanswered(), "Ответ из одних пробелов считается пустым")
	assert.False(t, (&DrillClue{Response: &answered}).IsUnanswered())
}
