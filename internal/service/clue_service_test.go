package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/jtrainer-api/internal/domain/entity"
	apperrors "github.com/yourusername/jtrainer-api/internal/pkg/errors"
)

const importCSVHeader = "round,clue_value,daily_double_value,category,comments,clue_text,correct_response,air_date,notes"

func TestClueService_ImportClues_NormalizesHistoricValues(t *testing.T) {
	// Arrange: эфир до 26.11.2001 — стоимость удваивается при импорте
	clueRepo := new(MockClueRepository)
	svc := NewClueService(clueRepo)

	csv := importCSVHeader + "\n" +
		`1,100,,RIVERS,,Israel's eastern border river,What is the Jordan?,1997-03-15,` + "\n" +
		`2,2000,,PRESIDENTS,,16th US president,Who is Lincoln?,2015-06-01,`

	var imported []entity.Clue
	clueRepo.On("CreateBatch", mock.AnythingOfType("[]entity.Clue")).Run(func(args mock.Arguments) {
		imported = args.Get(0).([]entity.Clue)
	}).Return(nil)

	// Act
	result, err := svc.ImportClues(strings.NewReader(csv), ',')

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	require.Len(t, imported, 2)

	// Историческая стоимость приведена к современной шкале
	require.NotNil(t, imported[0].NormalizedValue)
	assert.Equal(t, 200, *imported[0].NormalizedValue)
	assert.Equal(t, 100, *imported[0].ClueValue, "Исходная стоимость сохраняется как есть")

	// Современная стоимость не меняется
	require.NotNil(t, imported[1].NormalizedValue)
	assert.Equal(t, 2000, *imported[1].NormalizedValue)
}

func TestClueService_ImportClues_SkipsBadRows(t *testing.T) {
	clueRepo := new(MockClueRepository)
	svc := NewClueService(clueRepo)

	csv := importCSVHeader + "\n" +
		`9,100,,RIVERS,,text,answer,1997-03-15,` + "\n" + // раунд вне диапазона
		`1,abc,,RIVERS,,text,answer,1997-03-15,` + "\n" + // нечитаемая стоимость
		`1,200,,RIVERS,,text,answer,2010-01-01,`

	clueRepo.On("CreateBatch", mock.AnythingOfType("[]entity.Clue")).Return(nil)

	result, err := svc.ImportClues(strings.NewReader(csv), ',')

	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Skipped, "Плохие строки пропускаются, импорт продолжается")
}

func TestClueService_ImportClues_RejectsWrongHeader(t *testing.T) {
	clueRepo := new(MockClueRepository)
	svc := NewClueService(clueRepo)

	csv := "foo,bar\n1,2"

	result, err := svc.ImportClues(strings.NewReader(csv), ',')

	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	clueRepo.AssertNotCalled(t, "CreateBatch", mock.Anything)
}

func TestClueService_GetClueStats(t *testing.T) {
	clueRepo := new(MockClueRepository)
	svc := NewClueService(clueRepo)

	clueRepo.On("GetByID", uint(5)).Return(&entity.Clue{ID: 5}, nil)
	clueRepo.On("GetPlayStats", uint(5)).Return(int64(4), int64(3), nil)

	stats, err := svc.GetClueStats(5)

	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TimesSeen)
	require.NotNil(t, stats.SuccessRate)
	assert.InDelta(t, 0.75, *stats.SuccessRate, 0.0001)
}

func TestClueService_GetClueStats_NeverPlayed(t *testing.T) {
	clueRepo := new(MockClueRepository)
	svc := NewClueService(clueRepo)

	clueRepo.On("GetByID", uint(5)).Return(&entity.Clue{ID: 5}, nil)
	clueRepo.On("GetPlayStats", uint(5)).Return(int64(0), int64(0), nil)

	stats, err := svc.GetClueStats(5)

	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TimesSeen)
	assert.Nil(t, stats.SuccessRate, "У несыгранного клю нет доли успеха")
}
