package repository

import (
	"github.com/yourusername/jtrainer-api/internal/domain/entity"
)

// DrillRepository определяет методы для работы с тренировками и их ответами.
// Ответы (DrillClue) принадлежат тренировке и каскадно удаляются вместе с ней,
// поэтому отдельного репозитория для них нет.
type DrillRepository interface {
	Create(drill *entity.Drill) error

	// GetByID возвращает тренировку с ответами (в порядке создания)
	// и их клю
	GetByID(id uint) (*entity.Drill, error)

	// GetActiveByUser возвращает последнюю активную (ended_at IS NULL)
	// тренировку пользователя
	GetActiveByUser(userID uint) (*entity.Drill, error)

	// ListByUser возвращает страницу тренировок пользователя,
	// новые первыми, и общее количество
	ListByUser(userID uint, offset, limit int) ([]entity.Drill, int64, error)

	Update(drill *entity.Drill) error
	Delete(id uint) error

	// SubmitResponse атомарно создает ответ и сохраняет кешированные
	// агрегаты тренировки (включая ended_at при исчерпании пула)
	SubmitResponse(response *entity.DrillClue, drill *entity.Drill) error

	// Finish атомарно завершает тренировку: удаляет хвостовой пустой ответ
	// (discardResponseID > 0), сохраняет агрегаты и ended_at
	Finish(drill *entity.Drill, discardResponseID uint) error
}
