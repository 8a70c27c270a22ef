package service

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/jtrainer-api/internal/domain/entity"
	"github.com/yourusername/jtrainer-api/internal/domain/repository"
	apperrors "github.com/yourusername/jtrainer-api/internal/pkg/errors"
	"github.com/yourusername/jtrainer-api/internal/service/drillengine"
)

// ============================================================================
// Моки для тестирования DrillService
// ============================================================================

// MockDrillRepository реализует repository.DrillRepository
type MockDrillRepository struct {
	mock.Mock
}

func (m *MockDrillRepository) Create(drill *entity.Drill) error {
	args := m.Called(drill)
	return args.Error(0)
}

func (m *MockDrillRepository) GetByID(id uint) (*entity.Drill, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Drill), args.Error(1)
}

func (m *MockDrillRepository) GetActiveByUser(userID uint) (*entity.Drill, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Drill), args.Error(1)
}

func (m *MockDrillRepository) ListByUser(userID uint, offset, limit int) ([]entity.Drill, int64, error) {
	args := m.Called(userID, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Drill), args.Get(1).(int64), args.Error(2)
}

func (m *MockDrillRepository) Update(drill *entity.Drill) error {
	args := m.Called(drill)
	return args.Error(0)
}

func (m *MockDrillRepository) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockDrillRepository) SubmitResponse(response *entity.DrillClue, drill *entity.Drill) error {
	args := m.Called(response, drill)
	return args.Error(0)
}

func (m *MockDrillRepository) Finish(drill *entity.Drill, discardResponseID uint) error {
	args := m.Called(drill, discardResponseID)
	return args.Error(0)
}

// MockClueRepository реализует repository.ClueRepository
type MockClueRepository struct {
	mock.Mock
}

func (m *MockClueRepository) Create(clue *entity.Clue) error {
	args := m.Called(clue)
	return args.Error(0)
}

func (m *MockClueRepository) CreateBatch(clues []entity.Clue) error {
	args := m.Called(clues)
	return args.Error(0)
}

func (m *MockClueRepository) GetByID(id uint) (*entity.Clue, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Clue), args.Error(1)
}

func (m *MockClueRepository) List(offset, limit int) ([]entity.Clue, int64, error) {
	args := m.Called(offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Clue), args.Get(1).(int64), args.Error(2)
}

func (m *MockClueRepository) Count() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClueRepository) FindCandidateIDs(filter repository.ClueFilter, excludeIDs []uint) ([]uint, error) {
	args := m.Called(filter, excludeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockClueRepository) GetPlayStats(clueID uint) (int64, int64, error) {
	args := m.Called(clueID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

// ============================================================================
// Вспомогательные функции
// ============================================================================

func newTestDrillService(drillRepo *MockDrillRepository, clueRepo *MockClueRepository) *DrillService {
	return NewDrillService(drillRepo, clueRepo, drillengine.DefaultConfig(), rand.New(rand.NewSource(1)))
}

func intPtr(v int) *int           { return &v }
func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func testClue(id uint, value int, correctResponse string) *entity.Clue {
	return &entity.Clue{
		ID:              id,
		Round:           entity.RoundSingle,
		NormalizedValue: &value,
		Category:        "RIVERS",
		ClueText:        "Israel's eastern border river",
		CorrectResponse: correctResponse,
	}
}

func activeDrill(id, userID uint, responses ...entity.DrillClue) *entity.Drill {
	return &entity.Drill{
		ID:         id,
		UserID:     userID,
		StartedAt:  time.Now().Add(-10 * time.Minute),
		DrillClues: responses,
	}
}

// ============================================================================
// StartDrill
// ============================================================================

func TestDrillService_StartDrill_Success(t *testing.T) {
	// Arrange
	drillRepo := new(MockDrillRepository)
	clueRepo := new(MockClueRepository)
	svc := newTestDrillService(drillRepo, clueRepo)

	filter := repository.ClueFilter{Round: intPtr(entity.RoundSingle), Values: []int{200, 400}}

	drillRepo.On("Create", mock.AnythingOfType("*entity.Drill")).Run(func(args mock.Arguments) {
		args.Get(0).(*entity.Drill).ID = 1
	}).Return(nil)
	clueRepo.On("FindCandidateIDs", filter, []uint(nil)).Return([]uint{5}, nil)
	clueRepo.On("GetByID", uint(5)).Return(testClue(5, 200, "What is the Jordan?"), nil)

	// Act
	drill, clue, err := svc.StartDrill(42, filter)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, drill)
	require.NotNil(t, clue)
	assert.Equal(t, uint(42), drill.UserID)
	assert.Nil(t, drill.EndedAt, "Новая тренировка активна")
	assert.Equal(t, uint(5), clue.ID)
	drillRepo.AssertExpectations(t)
}

func TestDrillService_StartDrill_EmptyPoolDeletesDrill(t *testing.T) {
	// Arrange: под фильтры не подходит ни один клю
	drillRepo := new(MockDrillRepository)
	clueRepo := new(MockClueRepository)
	svc := newTestDrillService(drillRepo, clueRepo)

	drillRepo.On("Create", mock.AnythingOfType("*entity.Drill")).Run(func(args mock.Arguments) {
		args.Get(0).(*entity.Drill).ID = 7
	}).Return(nil)
	clueRepo.On("FindCandidateIDs", mock.Anything, mock.Anything).Return([]uint{}, nil)
	drillRepo.On("Delete", uint(7)).Return(nil)

	// Act
	drill, clue, err := svc.StartDrill(42, repository.ClueFilter{})

	// Assert: тренировка не сохраняется
	assert.Nil(t, drill)
	assert.Nil(t, clue)
	assert.ErrorIs(t, err, drillengine.ErrPoolExhausted)
	drillRepo.AssertCalled(t, "Delete", uint(7))
}

func TestDrillService_StartDrill_InvalidFilter(t *testing.T) {
	drillRepo := new(MockDrillRepository)
	clueRepo := new(MockClueRepository)
	svc := newTestDrillService(drillRepo, clueRepo)

	// Финальный раунд в тренировках недоступен
	_, _, err := svc.StartDrill(42, repository.ClueFilter{Round: intPtr(entity.RoundFinal)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// Стоимость вне набора раунда
	_, _, err = svc.StartDrill(42, repository.ClueFilter{Round: intPtr(entity.RoundSingle), Values: []int{2000}})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	drillRepo.AssertNotCalled(t, "Create", mock.Anything)
}

// ============================================================================
// SubmitResponse
// ============================================================================

func TestDrillService_SubmitResponse_CorrectAnswer(t *testing.T) {
	// Arrange
	drillRepo := new(MockDrillRepository)
	clueRepo := new(MockClueRepository)
	svc := newTestDrillService(drillRepo, clueRepo)

	drillRepo.On("GetByID", uint(1)).Return(activeDrill(1, 42), nil)
	clueRepo.On("GetByID", uint(5)).Return(testClue(5, 200, "What is the Jordan?"), nil)
	clueRepo.On("FindCandidateIDs", mock.Anything, []uint{5}).Return([]uint{9}, nil)
	clueRepo.On("GetByID", uint(9)).Return(testClue(9, 400, "Who is Lincoln?"), nil)
	drillRepo.On("SubmitResponse", mock.AnythingOfType("*entity.DrillClue"), mock.AnythingOfType("*entity.Drill")).Return(nil)

	// Act
	result, err := svc.SubmitResponse(42, 1, 5, strPtr("jordan"), floatPtr(2.0))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.VerdictCorrect, result.Verdict)
	assert.False(t, result.Completed)
	require.NotNil(t, result.NextClue)
	assert.Equal(t, uint(9), result.NextClue.ID)
	assert.Equal(t, 1, result.Stats.Correct)
	assert.Equal(t, 200, result.Stats.CoryatScore)
	drillRepo.AssertExpectations(t)
}

func TestDrillService_SubmitResponse_ExhaustionCompletesDrill(t *testing.T) {
	// Arrange: после этого ответа несыгранных клю не остаётся
	drillRepo := new(MockDrillRepository)
	clueRepo := new(MockClueRepository)
	svc := newTestDrillService(drillRepo, clueRepo)

	drillRepo.On("GetByID", uint(1)).Return(activeDrill(1, 42), nil)
	clueRepo.On("GetByID", uint(5)).Return(testClue(5, 200, "What is the Jordan?"), nil)
	clueRepo.On("FindCandidateIDs", mock.Anything, []uint{5}).Return([]uint{}, nil)
	drillRepo.On("SubmitResponse", mock.AnythingOfType("*entity.DrillClue"), mock.AnythingOfType("*entity.Drill")).Return(nil)

	// Act
	result, err := svc.SubmitResponse(42, 1, 5, strPtr("jordan"), floatPtr(2.0))

	// Assert: тренировка завершается тем же вызовом
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Nil(t, result.NextClue)
	assert.NotNil(t, result.Drill.EndedAt, "Исчерпание пула выставляет ended_at")
}

func TestDrillService_SubmitResponse_DuplicateClue(t *testing.T) {
	// Arrange: клю 5 уже судился в этой тренировке
	drillRepo := new(MockDrillRepository)
	clueRepo := new(MockClueRepository)
	svc := newTestDrillService(drillRepo, clueRepo)

	drill := activeDrill(1, 42, entity.DrillClue{ID: 100, DrillID: 1, ClueID: 5, Result: entity.VerdictCorrect})
	drillRepo.On("GetByID", uint(1)).Return(drill, nil)

	// Act
	result, err := svc.SubmitResponse(42, 1, 5, strPtr("again"), floatPtr(2.0))

	// Assert
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState, "Повторный ответ на тот же клю отклоняется")
	drillRepo.AssertNotCalled(t, "SubmitResponse", mock.Anything, mock.Anything)
}

func TestDrillService_SubmitResponse_EndedDrill(t *testing.T) {
	drillRepo := new(MockDrillRepository)
	clueRepo := new(MockClueRepository)
	svc := newTestDrillService(drillRepo, clueRepo)

	ended := activeDrill(1, 42)
	now := time.Now()
	ended.EndedAt = &now
	drillRepo.On("GetByID", uint(1)).Return(ended, nil)

	result, err := svc.SubmitResponse(42, 1, 5, strPtr("jordan"), floatPtr(2.0))

	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState, "Завершённая тренировка не принимает ответы")
}

func TestDrillService_SubmitResponse_ForeignDrill(t *testing.T) {
	drillRepo := new(MockDrillRepository)
	clueRepo := new(MockClueRepository)
	svc := newTestDrillService(drillRepo, clueRepo)

	drillRepo.On("GetByID", uint(1)).Return(activeDrill(1, 42), nil)

	result, err := svc.SubmitResponse(99, 1, 5, strPtr("jordan"), floatPtr(2.0))

	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrForbidden, "Чужая тренировка недоступна")
}

func TestDrillService_SubmitResponse_ResponseTimeOutOfRange(t *testing.T) {
	drillRepo := new(MockDrillRepository)
	clueRepo := new(MockClueRepository)
	svc := newTestDrillService(drillRepo, clueRepo)

	drillRepo.On("GetByID", uint(1)).Return(activeDrill(1, 42), nil)

	// Больше окна ответа
	_, err := svc.SubmitResponse(42, 1, 5, strPtr("jordan"), floatPtr(20.0))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// Отрицательное время
	_, err = svc.SubmitResponse(42, 1, 5, strPtr("jordan"), floatPtr(-1.0))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

// ============================================================================
// EndDrill
// ============================================================================

func TestDrillService_EndDrill_NoResponsesDeletes(t *testing.T) {
	// Arrange: ни одного ответа — тренировка не несёт информации
	drillRepo := new(MockDrillRepository)
	clueRepo := new(MockClueRepository)
	svc := newTestDrillService(drillRepo, clueRepo)

	drillRepo.On("GetByID", uint(1)).Return(activeDrill(1, 42), nil)
	drillRepo.On("Delete", uint(1)).Return(nil)

	// Act
	result, err := svc.EndDrill(42, 1)

	// Assert
	require.NoError(t, err)
	assert.True(t, result.Deleted)
	assert.Nil(t, result.Drill)
	drillRepo.AssertCalled(t, "Delete", uint(1))
	drillRepo.AssertNotCalled(t, "Finish", mock.Anything, mock.Anything)
}

func TestDrillService_EndDrill_DiscardsTrailingBlankPass(t *testing.T) {
	// Arrange: последний ответ — pass-заглушка без текста
	// (клю показан, но не сыгран перед выходом)
	drillRepo := new(MockDrillRepository)
	clueRepo := new(MockClueRepository)
	svc := newTestDrillService(drillRepo, clueRepo)

	value := 200
	played := entity.DrillClue{
		ID: 100, DrillID: 1, ClueID: 5,
		Clue:     entity.Clue{ID: 5, NormalizedValue: &value},
		Response: strPtr("jordan"), Result: entity.VerdictCorrect,
	}
	trailing := entity.DrillClue{
		ID: 101, DrillID: 1, ClueID: 9,
		Clue:   entity.Clue{ID: 9, NormalizedValue: &value},
		Result: entity.VerdictPass,
	}
	drillRepo.On("GetByID", uint(1)).Return(activeDrill(1, 42, played, trailing), nil)
	drillRepo.On("Finish", mock.AnythingOfType("*entity.Drill"), uint(101)).Return(nil)

	// Act
	result, err := svc.EndDrill(42, 1)

	// Assert: заглушка отброшена, агрегаты пересчитаны без неё
	require.NoError(t, err)
	assert.False(t, result.Deleted)
	require.NotNil(t, result.Drill)
	assert.NotNil(t, result.Drill.EndedAt)
	assert.Equal(t, 1, result.Drill.CluesSeenCount, "Pass-заглушка не входит в сыгранные")
	assert.Equal(t, 0, result.Drill.PassCount)
	assert.Equal(t, 200, result.Drill.CoryatScore)
	assert.Len(t, result.Drill.DrillClues, 1)
	drillRepo.AssertCalled(t, "Finish", mock.AnythingOfType("*entity.Drill"), uint(101))
}

func TestDrillService_EndDrill_KeepsTrailingRealPass(t *testing.T) {
	// Arrange: последний ответ — настоящий pass с текстом "pass"
	drillRepo := new(MockDrillRepository)
	clueRepo := new(MockClueRepository)
	svc := newTestDrillService(drillRepo, clueRepo)

	value := 200
	trailing := entity.DrillClue{
		ID: 101, DrillID: 1, ClueID: 9,
		Clue:     entity.Clue{ID: 9, NormalizedValue: &value},
		Response: strPtr("pass"), Result: entity.VerdictPass,
	}
	drillRepo.On("GetByID", uint(1)).Return(activeDrill(1, 42, trailing), nil)
	drillRepo.On("Finish", mock.AnythingOfType("*entity.Drill"), uint(0)).Return(nil)

	// Act
	result, err := svc.EndDrill(42, 1)

	// Assert: явный пас остаётся в журнале
	require.NoError(t, err)
	assert.Equal(t, 1, result.Drill.PassCount)
	assert.Equal(t, 1, result.Drill.CluesSeenCount)
	drillRepo.AssertCalled(t, "Finish", mock.AnythingOfType("*entity.Drill"), uint(0))
}

func TestDrillService_EndDrill_Idempotent(t *testing.T) {
	// Arrange: тренировка уже завершена
	drillRepo := new(MockDrillRepository)
	clueRepo := new(MockClueRepository)
	svc := newTestDrillService(drillRepo, clueRepo)

	ended := activeDrill(1, 42, entity.DrillClue{ID: 100, Response: strPtr("x"), Result: entity.VerdictIncorrect})
	now := time.Now()
	ended.EndedAt = &now
	drillRepo.On("GetByID", uint(1)).Return(ended, nil)

	// Act
	result, err := svc.EndDrill(42, 1)

	// Assert: повторное завершение — успешный no-op
	require.NoError(t, err)
	assert.True(t, result.AlreadyEnded)
	drillRepo.AssertNotCalled(t, "Finish", mock.Anything, mock.Anything)
	drillRepo.AssertNotCalled(t, "Delete", mock.Anything)
}

// ============================================================================
// ValidateClueFilter
// ============================================================================

func TestValidateClueFilter(t *testing.T) {
	// Пустой фильтр валиден
	assert.NoError(t, ValidateClueFilter(repository.ClueFilter{}))

	// Допустимые раунды — только 1 и 2
	assert.NoError(t, ValidateClueFilter(repository.ClueFilter{Round: intPtr(entity.RoundSingle)}))
	assert.NoError(t, ValidateClueFilter(repository.ClueFilter{Round: intPtr(entity.RoundDouble)}))
	assert.ErrorIs(t, ValidateClueFilter(repository.ClueFilter{Round: intPtr(entity.RoundFinal)}), apperrors.ErrValidation)
	assert.ErrorIs(t, ValidateClueFilter(repository.ClueFilter{Round: intPtr(0)}), apperrors.ErrValidation)

	// Стоимости сверяются с набором раунда; без раунда — с объединением
	assert.NoError(t, ValidateClueFilter(repository.ClueFilter{Values: []int{200, 2000}}))
	assert.ErrorIs(t, ValidateClueFilter(repository.ClueFilter{Values: []int{300}}), apperrors.ErrValidation)
	assert.ErrorIs(t, ValidateClueFilter(repository.ClueFilter{
		Round:  intPtr(entity.RoundSingle),
		Values: []int{2000},
	}), apperrors.ErrValidation)

	// Границы дат в правильном порядке
	from := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2005, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.ErrorIs(t, ValidateClueFilter(repository.ClueFilter{AirDateFrom: &from, AirDateTo: &to}), apperrors.ErrValidation)
}
