package repository

import (
	"time"

	"github.com/yourusername/jtrainer-api/internal/domain/entity"
)

// ClueFilter описывает критерии отбора клю для тренировки.
// Каждое поле опционально; nil/пустое значение означает отсутствие
// ограничения. Активные ограничения комбинируются через AND.
// Финальный раунд исключается из кандидатов всегда, независимо от фильтра.
type ClueFilter struct {
	// Round ограничивает раунд (RoundSingle или RoundDouble)
	Round *int

	// Values ограничивает нормализованную стоимость заданным подмножеством
	Values []int

	// AirDateFrom/AirDateTo ограничивают дату эфира (включительно)
	AirDateFrom *time.Time
	AirDateTo   *time.Time
}

// ClueRepository определяет методы для работы с клю
type ClueRepository interface {
	Create(clue *entity.Clue) error
	CreateBatch(clues []entity.Clue) error
	GetByID(id uint) (*entity.Clue, error)
	// List возвращает страницу клю и общее количество записей
	List(offset, limit int) ([]entity.Clue, int64, error)
	Count() (int64, error)

	// FindCandidateIDs возвращает идентификаторы клю, подходящих под фильтр,
	// за вычетом excludeIDs. Клю финального раунда не возвращаются никогда.
	FindCandidateIDs(filter ClueFilter, excludeIDs []uint) ([]uint, error)

	// GetPlayStats возвращает, сколько раз клю был сыгран во всех тренировках
	// и сколько из них — правильно
	GetPlayStats(clueID uint) (seen int64, correct int64, err error)
}
